package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swellwatch/swellwatch/internal/alert"
	"github.com/swellwatch/swellwatch/internal/api/models"
	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/patch"
	"github.com/swellwatch/swellwatch/internal/provider/resilience"
	"github.com/swellwatch/swellwatch/internal/region"
	"github.com/swellwatch/swellwatch/internal/station"
)

// stubForecaster returns a canned forecast, or an error per station.
type stubForecaster struct {
	fail map[string]error
}

func (s *stubForecaster) ForecastOne(_ context.Context, st station.Record, threshold float64, refTime time.Time) (forecast.StationForecast, error) {
	if err, ok := s.fail[st.ID]; ok {
		return forecast.StationForecast{}, err
	}

	values := []float64{2.1, 3.0, 4.0, 4.5, 3.2, 2.8}
	leadHours := []int{1, 2, 3, 4, 5, 6}
	event, _ := alert.Evaluate(st.ID, leadHours, values, threshold, refTime)

	return forecast.StationForecast{
		StationID: st.ID,
		Lat:       st.Lat,
		Lon:       st.Lon,
		Forecast: forecast.Result{
			StationID:     st.ID,
			ReferenceTime: refTime.Truncate(time.Hour),
			LeadHours:     leadHours,
			Values:        values,
			Threshold:     threshold,
		},
		Alert: event,
	}, nil
}

// stubRegionService forecasts every region station via the forecaster.
type stubRegionService struct {
	catalog    *station.Catalog
	forecaster *stubForecaster
}

func (s *stubRegionService) ForecastRegion(ctx context.Context, regionID string, threshold float64, refTime time.Time, maxStations int) (*region.Forecast, error) {
	reg, err := station.RegionByID(regionID)
	if err != nil {
		return nil, err
	}
	stations, total, err := s.catalog.StationsInRegion(reg.ID, maxStations)
	if err != nil {
		return nil, err
	}

	batch := forecast.Batch{TotalStations: total}
	for _, st := range stations {
		fc, err := s.forecaster.ForecastOne(ctx, st, threshold, refTime)
		if err != nil {
			batch.Failures = append(batch.Failures, forecast.Failure{StationID: st.ID, Reason: err.Error()})
			continue
		}
		batch.Results = append(batch.Results, fc)
	}

	return &region.Forecast{
		Region:        reg,
		Threshold:     threshold,
		ReferenceTime: refTime.Truncate(time.Hour),
		Batch:         batch,
	}, nil
}

func testRouter(t *testing.T, forecaster *stubForecaster) http.Handler {
	t.Helper()

	catalog, err := station.NewCatalog([]station.Record{
		{ID: "46026", Lat: 37.754, Lon: -122.839},
		{ID: "46042", Lat: 36.785, Lon: -122.398},
		{ID: "41001", Lat: 34.625, Lon: -72.617},
	})
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Version:       "test",
		BuildTime:     "now",
		PredictorName: "synthetic",
		Logger:        zerolog.Nop(),
		Catalog:       catalog,
		Registry:      resilience.NewRegistry(),
		Forecaster:    forecaster,
		Regions:       &stubRegionService{catalog: catalog, forecaster: forecaster},
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, float64(3), health.Details["stations"])
	assert.Equal(t, "synthetic", health.Details["predictor"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestListOceanRegions(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodGet, "/api/ocean-regions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.OceanRegionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Regions)

	ids := make(map[string]bool)
	for _, g := range resp.Regions {
		ids[g.ID] = true
		assert.NotEmpty(t, g.Name)
	}
	assert.True(t, ids["us_west_coast"])
	assert.True(t, ids["north_pacific"])
}

func TestListStations(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodGet, "/api/stations?ocean=us_west_coast", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Stations, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "46026", resp.Stations[0].ID)
	assert.Equal(t, "46042", resp.Stations[1].ID)
}

func TestListStationsUnknownRegion(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodGet, "/api/stations?ocean=atlantis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestListStationsMissingParam(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodGet, "/api/stations", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "ocean", problem.Errors[0].Field)
}

func TestGetStation(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodGet, "/api/station/46042", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var st models.Station
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "46042", st.ID)
	assert.Contains(t, st.Regions, "us_west_coast")
}

func TestGetStationNotFound(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodGet, "/api/station/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPredict(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodPost, "/api/predict", models.PredictRequest{StationID: "46042"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "46042", resp.StationID)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, resp.Forecast.LeadHours)
	assert.InDelta(t, 4.0, resp.Forecast.ThresholdM, 1e-9) // default threshold
	assert.Equal(t, []bool{false, false, true, true, false, false}, resp.Alert.Exceed)
	assert.True(t, resp.Alert.Alerted)
	assert.InDelta(t, 4.5, resp.Alert.MaxValueM, 1e-9)
	assert.Equal(t, 4, resp.Alert.MaxLeadHour)
}

func TestPredictValidation(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing station_id", models.PredictRequest{}},
		{"non-positive threshold", map[string]interface{}{"station_id": "46042", "threshold": -1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPredictUnknownStation(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodPost, "/api/predict", models.PredictRequest{StationID: "00000"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPredictDataGapMapsToServiceUnavailable(t *testing.T) {
	forecaster := &stubForecaster{fail: map[string]error{
		"46042": fmt.Errorf("wave slot: %w", patch.ErrTemporalGapExceeded),
	}}
	router := testRouter(t, forecaster)

	w := doJSON(t, router, http.MethodPost, "/api/predict", models.PredictRequest{StationID: "46042"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPredictInvalidModelOutputMapsToBadGateway(t *testing.T) {
	forecaster := &stubForecaster{fail: map[string]error{
		"46042": fmt.Errorf("predictor: %w", forecast.ErrInvalidForecast),
	}}
	router := testRouter(t, forecaster)

	w := doJSON(t, router, http.MethodPost, "/api/predict", models.PredictRequest{StationID: "46042"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPredictOcean(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodPost, "/api/predict-ocean", models.PredictOceanRequest{Ocean: "US West Coast"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PredictOceanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "us_west_coast", resp.RegionID)
	assert.Equal(t, "US West Coast", resp.RegionName)
	require.Len(t, resp.Predictions, 2)
	assert.Equal(t, "46026", resp.Predictions[0].StationID)
	assert.Equal(t, "46042", resp.Predictions[1].StationID)
	assert.Equal(t, 2, resp.AlertCount)
	assert.Empty(t, resp.Failures)
}

func TestPredictOceanIsolatesFailures(t *testing.T) {
	forecaster := &stubForecaster{fail: map[string]error{
		"46026": patch.ErrPatchUnavailable,
	}}
	router := testRouter(t, forecaster)

	w := doJSON(t, router, http.MethodPost, "/api/predict-ocean", models.PredictOceanRequest{Ocean: "us_west_coast"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PredictOceanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Predictions, 1)
	assert.Equal(t, "46042", resp.Predictions[0].StationID)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "46026", resp.Failures[0].StationID)
}

func TestPredictOceanUnknownRegion(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	w := doJSON(t, router, http.MethodPost, "/api/predict-ocean", models.PredictOceanRequest{Ocean: "atlantis"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPredictRejectsNonJSONBody(t *testing.T) {
	router := testRouter(t, &stubForecaster{})

	req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewReader([]byte("station_id=46042")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
