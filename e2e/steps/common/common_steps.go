package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	Status() int
	Body() string
	GetResponseField(field string) (any, error)
	Set(name, value string)
	Expand(s string) string
}

// RegisterSteps registers background and generic assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^a tourist "([^"]*)"$`, steps.aTourist)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) items?$`, steps.fieldShouldHaveItems)
	ctx.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, steps.remember)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) aTourist(ctx context.Context, name string) error {
	s.tc.Set(name, uuid.NewString())
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	if s.tc.Status() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.Status(), s.tc.Body())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	expected = s.tc.Expand(expected)
	var got string
	switch t := v.(type) {
	case string:
		got = t
	case float64:
		got = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		got = fmt.Sprint(t)
	}
	if got != expected {
		return fmt.Errorf("field %q: expected %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeBool(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	b, ok := v.(bool)
	if !ok || strconv.FormatBool(b) != expected {
		return fmt.Errorf("field %q: expected %s, got %v", field, expected, v)
	}
	return nil
}

func (s *commonSteps) fieldShouldHaveItems(ctx context.Context, field string, n int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("field %q is not a list: %v", field, v)
	}
	if len(items) != n {
		return fmt.Errorf("field %q: expected %d items, got %d", field, n, len(items))
	}
	return nil
}

func (s *commonSteps) remember(ctx context.Context, field, name string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	s.tc.Set(name, fmt.Sprint(v))
	return nil
}
