package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TestContext holds per-scenario state: the last response and named values
// captured by earlier steps.
type TestContext struct {
	BaseURL string
	client  *http.Client

	status int
	body   []byte
	parsed any
	vars   map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		vars:    map[string]string{},
	}
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.status, tc.body, tc.parsed = 0, nil, nil
	tc.vars = map[string]string{}
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.parsed = nil
	if len(tc.body) > 0 {
		if err := json.Unmarshal(tc.body, &tc.parsed); err != nil {
			return fmt.Errorf("decode response %q: %w", tc.body, err)
		}
	}
	return nil
}

func (tc *TestContext) Status() int { return tc.status }

func (tc *TestContext) Body() string { return string(tc.body) }

// GetResponseField resolves a dotted path such as "alert.status" or
// "alerts.0.type" against the last JSON response.
func (tc *TestContext) GetResponseField(path string) (any, error) {
	cur := tc.parsed
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.body)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("index %q out of range in %s", part, tc.body)
			}
			cur = v[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %s", part, tc.body)
		}
	}
	return cur, nil
}

// Set stores a value that later steps reference as {name}.
func (tc *TestContext) Set(name, value string) { tc.vars[name] = value }

func (tc *TestContext) Get(name string) string { return tc.vars[name] }

// Expand substitutes {name} placeholders with captured values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
