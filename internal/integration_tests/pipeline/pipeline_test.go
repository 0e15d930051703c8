package pipeline

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertHandler "smartourism/internal/alert/handler"
	alertModels "smartourism/internal/alert/models"
	alertService "smartourism/internal/alert/service"
	alertStore "smartourism/internal/alert/store"
	fenceHandler "smartourism/internal/geofence/handler"
	"smartourism/internal/geofence/index"
	fenceService "smartourism/internal/geofence/service"
	fenceStore "smartourism/internal/geofence/store"
	ingestHandler "smartourism/internal/ingest/handler"
	ingestService "smartourism/internal/ingest/service"
	locationHandler "smartourism/internal/location/handler"
	locationService "smartourism/internal/location/service"
	locationStore "smartourism/internal/location/store"
	"smartourism/internal/risk"
	httptransport "smartourism/internal/transport/http"
	"smartourism/pkg/testutil"
)

// oracle is a stand-in risk scoring service.
type oracle struct {
	calls atomic.Int32
	down  atomic.Bool
	score float64
}

func (o *oracle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.calls.Add(1)
	if o.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"risk_score": o.score, "alerts": []string{}})
}

func newStack(t *testing.T, o *oracle) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(o)
	t.Cleanup(srv.Close)

	locations := locationService.New(locationStore.NewInMemoryStore(), locationService.WithLogger(logger))
	fences := fenceService.New(index.New(fenceStore.NewInMemoryStore()), locations)
	alerts := alertService.New(alertStore.NewInMemoryStore(), alertService.WithLogger(logger))
	assessor := risk.NewClient(srv.URL, time.Second, risk.WithLogger(logger))
	pipeline := ingestService.New(locations, assessor, fences, alerts, ingestService.WithLogger(logger))

	return httptransport.NewRouter(httptransport.Options{Logger: logger},
		ingestHandler.New(pipeline, logger),
		locationHandler.New(locations, logger),
		fenceHandler.New(fences, logger),
		alertHandler.New(alerts, logger),
	)
}

func ping(t *testing.T, router http.Handler, entity string, body map[string]any) *ingestHandler.PingResponse {
	t.Helper()
	body["entity_id"] = entity
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/locations", body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[ingestHandler.PingResponse](t, rr)
}

func TestPipeline_EnrichmentAndAlerts(t *testing.T) {
	o := &oracle{score: 0.85}
	router := newStack(t, o)
	entity := uuid.NewString()

	testutil.Given(t, "a tourist with no history", func(t *testing.T) {
		first := ping(t, router, entity, map[string]any{"lat": 40.7128, "lon": -74.006})

		testutil.Then(t, "the oracle is not consulted for a single point", func(t *testing.T) {
			assert.Zero(t, o.calls.Load())
			assert.Nil(t, first.Location.RiskScore)
			assert.Empty(t, first.Alerts)
		})
	})

	testutil.When(t, "a second ping scores above the threshold", func(t *testing.T) {
		second := ping(t, router, entity, map[string]any{"lat": 40.7129, "lon": -74.0059})

		testutil.Then(t, "the point is enriched and one anomaly alert is raised", func(t *testing.T) {
			assert.EqualValues(t, 1, o.calls.Load())
			assert.Equal(t, 0.85, second.Location.Score())
			assert.Equal(t, "high", second.Location.Label())
			require.Len(t, second.Alerts, 1)
			assert.Equal(t, alertModels.TypeAnomaly, second.Alerts[0].Type)
		})

		testutil.Then(t, "latest returns the enriched point", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/locations/latest/"+entity))
			testutil.AssertStatusOK(t, rr)
			latest := testutil.UnmarshalResponse[map[string]any](t, rr)
			assert.Equal(t, second.Location.ID.String(), (*latest)["id"])
			assert.Equal(t, 0.85, (*latest)["risk_score"])
		})

		testutil.Then(t, "the alert is listed as open", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/alerts"))
			testutil.AssertStatusOK(t, rr)
			open := testutil.UnmarshalResponse[[]alertModels.Alert](t, rr)
			require.Len(t, *open, 1)
			assert.Equal(t, second.Alerts[0].ID, (*open)[0].ID)
		})
	})
}

func TestPipeline_OracleDown(t *testing.T) {
	o := &oracle{}
	o.down.Store(true)
	router := newStack(t, o)
	entity := uuid.NewString()

	ping(t, router, entity, map[string]any{"lat": 1, "lon": 1})
	res := ping(t, router, entity, map[string]any{"lat": 1.001, "lon": 1.001, "risk_score": 0.2, "risk_label": "calm"})

	assert.EqualValues(t, 1, o.calls.Load())
	assert.Equal(t, 0.2, res.Location.Score())
	assert.Equal(t, "calm", res.Location.Label())
	assert.Empty(t, res.Alerts)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/locations/history/"+entity))
	testutil.AssertStatusOK(t, rr)
	history := testutil.UnmarshalResponse[locationHandler.HistoryResponse](t, rr)
	require.Len(t, history.History, 2)
	assert.Equal(t, res.Location.ID, history.History[1].ID)
}

func TestPipeline_GeofenceAndSOS(t *testing.T) {
	router := newStack(t, &oracle{score: 0.1})
	entity := uuid.NewString()

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/geofences", map[string]any{
		"name":       "Financial District",
		"risk_level": "high",
		"coordinates": [][2]float64{
			{-74.006, 40.7128}, {-74.005, 40.7128}, {-74.005, 40.7138}, {-74.006, 40.7138}, {-74.006, 40.7128},
		},
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	inside := ping(t, router, entity, map[string]any{"lat": 40.7130, "lon": -74.0055})
	assert.True(t, inside.Geofence.Inside)
	require.Len(t, inside.Alerts, 1)
	assert.Equal(t, alertModels.TypeGeoFence, inside.Alerts[0].Type)

	outside := ping(t, router, entity, map[string]any{"lat": 41.0, "lon": -75.0})
	assert.False(t, outside.Geofence.Inside)
	assert.Empty(t, outside.Alerts)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/sos", map[string]any{
		"entity_id": entity,
		"message":   "I am lost and unsafe",
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	sos := testutil.UnmarshalResponse[alertHandler.AlertResponse](t, rr)
	assert.Equal(t, alertModels.TypeLost, sos.Alert.Type)
	assert.Equal(t, "one-tap SOS: I am lost and unsafe", sos.Alert.Description)

	for i := 0; i < 2; i++ {
		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPut, "/api/alerts/resolve/"+sos.Alert.ID.String()))
		testutil.AssertStatusOK(t, rr)
		resolved := testutil.UnmarshalResponse[alertHandler.AlertResponse](t, rr)
		assert.Equal(t, alertModels.StatusResolved, resolved.Alert.Status)
	}

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/alerts/entity/"+entity+"?status=open"))
	testutil.AssertStatusOK(t, rr)
	open := testutil.UnmarshalResponse[[]alertModels.Alert](t, rr)
	require.Len(t, *open, 1)
	assert.Equal(t, alertModels.TypeGeoFence, (*open)[0].Type)
}
