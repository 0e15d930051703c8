package tracking

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	Get(name string) string
}

// RegisterSteps registers location and geo-fence steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &trackingSteps{tc: tc}

	ctx.Step(`^"([^"]*)" reports location (-?[\d.]+), (-?[\d.]+)$`, steps.reportLocation)
	ctx.Step(`^"([^"]*)" reports location (-?[\d.]+), (-?[\d.]+) with risk score ([\d.]+)$`, steps.reportLocationWithScore)
	ctx.Step(`^a "([^"]*)" risk geo-fence "([^"]*)" around (-?[\d.]+), (-?[\d.]+)$`, steps.createFence)
	ctx.Step(`^I check the geo-fences for "([^"]*)"$`, steps.checkFences)
	ctx.Step(`^I fetch the latest location of "([^"]*)"$`, steps.latest)
	ctx.Step(`^I fetch the location history of "([^"]*)"$`, steps.history)
}

type trackingSteps struct {
	tc TestContext
}

func (s *trackingSteps) reportLocation(ctx context.Context, tourist string, lat, lon float64) error {
	return s.tc.POST("/api/locations", map[string]any{
		"entity_id": s.tc.Get(tourist),
		"lat":       lat,
		"lon":       lon,
	})
}

func (s *trackingSteps) reportLocationWithScore(ctx context.Context, tourist string, lat, lon, score float64) error {
	return s.tc.POST("/api/locations", map[string]any{
		"entity_id":  s.tc.Get(tourist),
		"lat":        lat,
		"lon":        lon,
		"risk_score": score,
	})
}

// createFence posts a square of 0.001 degrees centred on the point.
func (s *trackingSteps) createFence(ctx context.Context, level, name string, lat, lon float64) error {
	const half = 0.0005
	return s.tc.POST("/api/geofences", map[string]any{
		"name":       name,
		"risk_level": level,
		"coordinates": [][2]float64{
			{lon - half, lat - half},
			{lon + half, lat - half},
			{lon + half, lat + half},
			{lon - half, lat + half},
			{lon - half, lat - half},
		},
	})
}

func (s *trackingSteps) checkFences(ctx context.Context, tourist string) error {
	return s.tc.GET("/api/geofences/check/" + s.tc.Get(tourist))
}

func (s *trackingSteps) latest(ctx context.Context, tourist string) error {
	return s.tc.GET("/api/locations/latest/" + s.tc.Get(tourist))
}

func (s *trackingSteps) history(ctx context.Context, tourist string) error {
	return s.tc.GET("/api/locations/history/" + s.tc.Get(tourist))
}
