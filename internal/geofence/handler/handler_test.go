package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartourism/internal/geofence/index"
	"smartourism/internal/geofence/models"
	"smartourism/internal/geofence/service"
	"smartourism/internal/geofence/store"
	locationService "smartourism/internal/location/service"
	locationStore "smartourism/internal/location/store"
	id "smartourism/pkg/domain"
	"smartourism/pkg/requestcontext"
	"smartourism/pkg/testutil"
)

const squareBody = `{
	"name": "Financial District",
	"risk_level": "high",
	"coordinates": [[-74.006, 40.7128], [-74.005, 40.7128], [-74.005, 40.7138], [-74.006, 40.7138], [-74.006, 40.7128]]
}`

type checkResponse struct {
	Inside   bool             `json:"inside"`
	Fences   []models.Summary `json:"fences"`
	Location map[string]any   `json:"location"`
}

func newRouter(t *testing.T) (http.Handler, *locationService.Service) {
	t.Helper()
	locations := locationService.New(locationStore.NewInMemoryStore())
	svc := service.New(index.New(store.NewInMemoryStore()), locations)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r, locations
}

func TestCreateAndListFences(t *testing.T) {
	router, _ := newRouter(t)

	testutil.When(t, "a valid fence is posted", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/geofences", squareBody))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[CreateFenceResponse](t, rr)
		assert.Equal(t, "Geo-fence created", resp.Message)
		assert.Equal(t, models.RiskLevelHigh, resp.Fence.RiskLevel)
		assert.Len(t, resp.Fence.Polygon, 5)
	})

	testutil.Then(t, "it is listed with its coordinates", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/geofences"))
		testutil.AssertStatusOK(t, rr)
		fences := testutil.UnmarshalResponse[[]models.GeoFence](t, rr)
		require.Len(t, *fences, 1)
		assert.Equal(t, "Financial District", (*fences)[0].Name)
		assert.Equal(t, -74.006, (*fences)[0].Polygon[0].Lon())
	})
}

func TestCreateFenceValidation(t *testing.T) {
	router, _ := newRouter(t)
	cases := map[string]string{
		"missing name":   `{"risk_level":"high","coordinates":[[0,0],[1,0],[1,1],[0,0]]}`,
		"bad risk level": `{"name":"x","risk_level":"extreme","coordinates":[[0,0],[1,0],[1,1],[0,0]]}`,
		"unclosed ring":  `{"name":"x","risk_level":"low","coordinates":[[0,0],[1,0],[1,1],[0,1]]}`,
		"too few points": `{"name":"x","risk_level":"low","coordinates":[[0,0],[1,0],[0,0]]}`,
		"out of range":   `{"name":"x","risk_level":"low","coordinates":[[0,0],[190,0],[1,1],[0,0]]}`,
		"no coordinates": `{"name":"x","risk_level":"low"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/geofences", body))
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
		})
	}
}

func TestListEmptyIsArray(t *testing.T) {
	router, _ := newRouter(t)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/geofences"))
	testutil.AssertStatusOK(t, rr)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCheck(t *testing.T) {
	router, locations := newRouter(t)
	entity := id.EntityID(uuid.New())

	testutil.Given(t, "an entity with no points", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/geofences/check/"+entity.String()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	testutil.Given(t, "a fence and a point inside it", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/geofences", squareBody))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		_, err := locations.Append(ctx, entity, 40.7130, -74.0055, nil, nil)
		require.NoError(t, err)

		testutil.Then(t, "check reports the fence", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/geofences/check/"+entity.String()))
			testutil.AssertStatusOK(t, rr)
			got := testutil.UnmarshalResponse[checkResponse](t, rr)
			assert.True(t, got.Inside)
			require.Len(t, got.Fences, 1)
			assert.Equal(t, "Financial District", got.Fences[0].Name)
			assert.Equal(t, 40.7130, got.Location["lat"])
		})
	})
}
