package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"smartourism/internal/risk/metrics"
	"smartourism/pkg/platform/circuit"
	platformstrings "smartourism/pkg/platform/strings"
)

// The oracle parses timestamps with an ISO-8601 parser that predates "Z"
// support, so offsets are always written numerically.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

const maxResponseBytes = 64 << 10

// Client calls the HTTP risk oracle. It never retries: a failed call is
// reported as ErrUnavailable and the ping is stored unenriched.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

var _ Assessor = (*Client)(nil)

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRateLimit caps outgoing calls. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient builds an oracle client for baseURL. Timeout bounds each call
// end to end.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/risk-score",
		http:     &http.Client{},
		timeout:  timeout,
		breaker:  circuit.New("risk-oracle"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type pointPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	TS  string  `json:"ts"`
}

type scoreRequest struct {
	Points []pointPayload `json:"points"`
}

type scoreResponse struct {
	RiskScore *float64 `json:"risk_score"`
	Label     string   `json:"label"`
	Alerts    []string `json:"alerts"`
}

// Assess scores a chronological trajectory of at least two points.
func (c *Client) Assess(ctx context.Context, points []TrackPoint) (Assessment, error) {
	if len(points) < MinTrackPoints {
		return Assessment{}, unavailable(CategoryInsufficient,
			fmt.Sprintf("need at least %d points, got %d", MinTrackPoints, len(points)), nil)
	}
	if c.breaker != nil && !c.breaker.Allow() {
		c.metrics.IncrementOutcome(string(CategoryCircuitOpen))
		return Assessment{}, unavailable(CategoryCircuitOpen, "circuit breaker open", nil)
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.metrics.IncrementOutcome(string(CategoryRateLimited))
		return Assessment{}, unavailable(CategoryRateLimited, "client rate limit exceeded", nil)
	}

	start := time.Now()
	assessment, err := c.call(ctx, points)
	c.metrics.ObserveCall(start)
	if err != nil {
		c.recordFailure(ctx, err)
		return Assessment{}, err
	}
	c.recordSuccess(ctx)
	c.metrics.IncrementOutcome("success")
	return assessment, nil
}

func (c *Client) call(ctx context.Context, points []TrackPoint) (Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := scoreRequest{Points: make([]pointPayload, len(points))}
	for i, p := range points {
		payload.Points[i] = pointPayload{Lat: p.Lat, Lon: p.Lon, TS: p.Timestamp.Format(timestampLayout)}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Assessment{}, unavailable(CategoryBadData, "marshal payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Assessment{}, unavailable(CategoryProviderOutage, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return Assessment{}, unavailable(CategoryTimeout, "oracle call timed out", err)
		}
		return Assessment{}, unavailable(CategoryProviderOutage, "oracle request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Assessment{}, unavailable(CategoryProviderOutage, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var out scoreResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		if isTimeout(ctx, err) {
			return Assessment{}, unavailable(CategoryTimeout, "oracle response timed out", err)
		}
		return Assessment{}, unavailable(CategoryBadData, "decode response", err)
	}
	if out.RiskScore == nil {
		return Assessment{}, unavailable(CategoryBadData, "response missing risk_score", nil)
	}
	score := *out.RiskScore
	if score < 0 || score > 1 {
		return Assessment{}, unavailable(CategoryBadData, fmt.Sprintf("risk_score %v outside [0,1]", score), nil)
	}

	label := strings.TrimSpace(out.Label)
	if label == "" {
		label = LabelForScore(score)
	}
	return Assessment{
		Score:    score,
		Label:    label,
		Findings: platformstrings.DedupeAndTrim(out.Alerts),
	}, nil
}

func (c *Client) recordFailure(ctx context.Context, err error) {
	category := CategoryOf(err)
	c.metrics.IncrementOutcome(string(category))
	if c.breaker == nil {
		c.logger.WarnContext(ctx, "risk oracle unavailable", "category", category, "error", err)
		return
	}
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.metrics.SetBreakerOpen(true)
		c.logger.ErrorContext(ctx, "risk oracle circuit breaker opened", "breaker", c.breaker.Name(), "error", err)
		return
	}
	c.logger.WarnContext(ctx, "risk oracle unavailable", "category", category, "error", err)
}

func (c *Client) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.SetBreakerOpen(false)
		c.logger.InfoContext(ctx, "risk oracle circuit breaker closed", "breaker", c.breaker.Name())
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
