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
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	alertModels "smartourism/internal/alert/models"
	"smartourism/internal/ingest/handler/mocks"
	"smartourism/internal/ingest/service"
	locationModels "smartourism/internal/location/models"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/ingest-mocks.go -package=mocks Service
type IngestHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
	entity  id.EntityID
	now     time.Time
}

func TestIngestHandlerSuite(t *testing.T) {
	suite.Run(t, new(IngestHandlerSuite))
}

func (s *IngestHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
	s.entity = id.EntityID(uuid.New())
	s.now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *IngestHandlerSuite) point(lat, lon float64) *locationModels.LocationPoint {
	p, err := locationModels.NewLocationPoint(id.NewPointID(), s.entity, lat, lon, nil, nil, s.now)
	s.Require().NoError(err)
	return p
}

func (s *IngestHandlerSuite) TestIngestReturnsPipelineResult() {
	saved := s.point(40.7130, -74.0055)
	alert, err := alertModels.NewAlert(id.NewAlertID(), s.entity, alertModels.TypeAnomaly, "AI risk=0.85, label=high", s.now)
	s.Require().NoError(err)

	s.service.EXPECT().Ingest(gomock.Any(), service.Input{
		EntityID: s.entity, Lat: 40.7130, Lon: -74.0055,
	}).Return(&service.Result{Location: saved, Alerts: []*alertModels.Alert{alert}}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/locations", map[string]any{
		"entity_id": s.entity.String(),
		"lat":       40.7130,
		"lon":       -74.0055,
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[PingResponse](s.T(), rr)
	s.Equal("Location saved", resp.Message)
	s.Require().NotNil(resp.Result)
	s.Equal(saved.ID, resp.Location.ID)
	s.Equal(locationModels.DefaultRiskLabel, resp.Location.Label())
	s.Require().Len(resp.Alerts, 1)
	s.Equal(alertModels.TypeAnomaly, resp.Alerts[0].Type)
}

func (s *IngestHandlerSuite) TestLegacyTouristIDAndClientRisk() {
	score, label := 0.2, "calm"
	saved := s.point(1, 2)
	saved.ApplyRisk(score, label)

	s.service.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in service.Input) (*service.Result, error) {
			s.Equal(s.entity, in.EntityID)
			s.Require().NotNil(in.RiskScore)
			s.Equal(0.2, *in.RiskScore)
			s.Require().NotNil(in.RiskLabel)
			s.Equal("calm", *in.RiskLabel)
			return &service.Result{Location: saved, Alerts: []*alertModels.Alert{}}, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/locations", map[string]any{
		"tourist_id": s.entity.String(),
		"lat":        1,
		"lon":        2,
		"risk_score": 0.2,
		"risk_label": "  calm ",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONHasKey(s.T(), rr, "alerts")
}

func (s *IngestHandlerSuite) TestBlankLabelIsDropped() {
	s.service.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in service.Input) (*service.Result, error) {
			s.Nil(in.RiskLabel)
			return &service.Result{Location: s.point(0, 0), Alerts: []*alertModels.Alert{}}, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/locations", map[string]any{
		"entity_id":  s.entity.String(),
		"lat":        0,
		"lon":        0,
		"risk_label": "   ",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *IngestHandlerSuite) TestRejectsInvalidRequests() {
	cases := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"entity_id":`, "bad_request"},
		{"empty body", ``, "bad_request"},
		{"missing entity", `{"lat":1,"lon":2}`, "validation_error"},
		{"bad entity id", `{"entity_id":"not-a-uuid","lat":1,"lon":2}`, "invalid_input"},
		{"missing lat", `{"entity_id":"` + s.entity.String() + `","lon":2}`, "validation_error"},
		{"missing lon", `{"entity_id":"` + s.entity.String() + `","lat":2}`, "validation_error"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/locations", tc.body)
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, tc.code)
		})
	}
}

func (s *IngestHandlerSuite) TestMapsPipelineErrors() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"out of range", dErrors.New(dErrors.CodeValidation, "lat must be within [-90, 90]"), http.StatusBadRequest, "validation_error"},
		{"store down", dErrors.New(dErrors.CodeUnavailable, "location store unavailable"), http.StatusServiceUnavailable, "service_unavailable"},
		{"internal", dErrors.New(dErrors.CodeInternal, "failed to save location"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(nil, tc.err)

			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/locations", map[string]any{
				"entity_id": s.entity.String(),
				"lat":       95,
				"lon":       0,
			})
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatusAndError(s.T(), rr, tc.status, tc.code)
		})
	}
}

func (s *IngestHandlerSuite) TestInternalErrorHidesMessage() {
	s.service.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to save location"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/locations", map[string]any{
		"entity_id": s.entity.String(),
		"lat":       1,
		"lon":       1,
	})
	rr := testutil.DoRequest(s.router, req)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Empty(body["error_description"])
}
