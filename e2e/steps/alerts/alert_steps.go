package alerts

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
	Get(name string) string
	Expand(s string) string
}

// RegisterSteps registers alert, response and SOS steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &alertSteps{tc: tc}

	ctx.Step(`^"([^"]*)" triggers an SOS saying "([^"]*)"$`, steps.triggerSOS)
	ctx.Step(`^"([^"]*)" raises a "([^"]*)" alert "([^"]*)"$`, steps.raiseAlert)
	ctx.Step(`^I resolve alert "([^"]*)"$`, steps.resolve)
	ctx.Step(`^I reply "([^"]*)" to alert "([^"]*)"$`, steps.reply)
	ctx.Step(`^I list the responses to alert "([^"]*)"$`, steps.listResponses)
	ctx.Step(`^I list the open alerts$`, steps.listOpen)
	ctx.Step(`^I list the "([^"]*)" alerts of "([^"]*)"$`, steps.listFor)
}

type alertSteps struct {
	tc TestContext
}

func (s *alertSteps) triggerSOS(ctx context.Context, tourist, message string) error {
	return s.tc.POST("/api/sos", map[string]any{
		"entity_id": s.tc.Get(tourist),
		"message":   message,
	})
}

func (s *alertSteps) raiseAlert(ctx context.Context, tourist, alertType, description string) error {
	return s.tc.POST("/api/alerts", map[string]any{
		"entity_id":   s.tc.Get(tourist),
		"type":        alertType,
		"description": description,
	})
}

func (s *alertSteps) resolve(ctx context.Context, alert string) error {
	return s.tc.PUT("/api/alerts/resolve/"+s.tc.Expand(alert), nil)
}

func (s *alertSteps) reply(ctx context.Context, text, alert string) error {
	return s.tc.POST("/api/alerts/"+s.tc.Expand(alert)+"/responses", map[string]any{
		"response": text,
	})
}

func (s *alertSteps) listResponses(ctx context.Context, alert string) error {
	return s.tc.GET("/api/alerts/" + s.tc.Expand(alert) + "/responses")
}

func (s *alertSteps) listOpen(ctx context.Context) error {
	return s.tc.GET("/api/alerts")
}

func (s *alertSteps) listFor(ctx context.Context, status, tourist string) error {
	return s.tc.GET("/api/alerts/entity/" + s.tc.Get(tourist) + "?status=" + status)
}
