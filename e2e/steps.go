package e2e

import (
	"github.com/cucumber/godog"

	"smartourism/e2e/steps/alerts"
	"smartourism/e2e/steps/common"
	"smartourism/e2e/steps/tracking"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Location pings and geo-fences
	tracking.RegisterSteps(ctx, tc)

	// Alerts, responses and SOS
	alerts.RegisterSteps(ctx, tc)
}
