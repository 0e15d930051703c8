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

	"smartourism/internal/location/models"
	"smartourism/internal/location/service"
	"smartourism/internal/location/store"
	id "smartourism/pkg/domain"
	"smartourism/pkg/requestcontext"
	"smartourism/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	svc := service.New(store.NewInMemoryStore())
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r, svc
}

func TestHandleLatest(t *testing.T) {
	router, svc := newRouter(t)
	entity := id.EntityID(uuid.New())

	testutil.Given(t, "an entity with no points", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/locations/latest/"+entity.String()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	testutil.Given(t, "two stored points", func(t *testing.T) {
		base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		_, err := svc.Append(requestcontext.WithTime(context.Background(), base), entity, 12.97, 77.59, nil, nil)
		require.NoError(t, err)
		second, err := svc.Append(requestcontext.WithTime(context.Background(), base.Add(time.Second)), entity, 12.98, 77.60, nil, nil)
		require.NoError(t, err)

		testutil.Then(t, "latest returns the second", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/locations/latest/"+entity.String()))
			testutil.AssertStatusOK(t, rr)
			got := testutil.UnmarshalResponse[models.LocationPoint](t, rr)
			assert.Equal(t, second.ID, got.ID)
			assert.Equal(t, 12.98, got.Lat)
			assert.True(t, second.Timestamp.Equal(got.Timestamp))
		})
	})

	testutil.Given(t, "a malformed entity id", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/locations/latest/not-a-uuid"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestHandleHistory(t *testing.T) {
	router, svc := newRouter(t)
	entity := id.EntityID(uuid.New())

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/locations/history/"+entity.String()))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	for i := 0; i < 3; i++ {
		_, err := svc.Append(context.Background(), entity, float64(i), float64(i), nil, nil)
		require.NoError(t, err)
	}

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/locations/history/"+entity.String()))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[HistoryResponse](t, rr)
	assert.Equal(t, entity, resp.EntityID)
	require.Len(t, resp.History, 3)
	assert.Equal(t, 0.0, resp.History[0].Lat)
	assert.Equal(t, 2.0, resp.History[2].Lat)
}
