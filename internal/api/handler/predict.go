package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/swellwatch/swellwatch/internal/api/middleware"
	"github.com/swellwatch/swellwatch/internal/api/models"
	"github.com/swellwatch/swellwatch/internal/api/response"
	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/patch"
	"github.com/swellwatch/swellwatch/internal/provider/resilience"
	"github.com/swellwatch/swellwatch/internal/region"
	"github.com/swellwatch/swellwatch/internal/station"
)

// DefaultThreshold is the wave-height alert threshold in meters when a
// request does not carry one.
const DefaultThreshold = 4.0

// Forecaster is the single-station forecast dependency.
type Forecaster interface {
	ForecastOne(ctx context.Context, st station.Record, threshold float64, refTime time.Time) (forecast.StationForecast, error)
}

// RegionForecaster is the region-sweep forecast dependency.
type RegionForecaster interface {
	ForecastRegion(ctx context.Context, regionID string, threshold float64, refTime time.Time, maxStations int) (*region.Forecast, error)
}

// PredictHandler handles forecast endpoints.
type PredictHandler struct {
	catalog    *station.Catalog
	forecaster Forecaster
	regions    RegionForecaster
	metrics    *middleware.ForecastMetrics
	stationCap int
	now        func() time.Time
}

// NewPredictHandler creates a new PredictHandler. metrics may be nil.
func NewPredictHandler(catalog *station.Catalog, forecaster Forecaster, regions RegionForecaster, metrics *middleware.ForecastMetrics) *PredictHandler {
	return &PredictHandler{
		catalog:    catalog,
		forecaster: forecaster,
		regions:    regions,
		metrics:    metrics,
		stationCap: DefaultStationCap,
		now:        time.Now,
	}
}

// Predict handles POST /api/predict.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if req.StationID == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "station_id", Message: "station_id is required", Code: "required"},
		})
		return
	}
	threshold, fieldErr := resolveThreshold(req.Threshold)
	if fieldErr != nil {
		response.BadRequest(w, r, "validation failed", []models.FieldError{*fieldErr})
		return
	}

	st, err := h.catalog.Station(req.StationID)
	if err != nil {
		response.NotFound(w, r, "unknown station: "+req.StationID)
		return
	}

	start := time.Now()
	fc, err := h.forecaster.ForecastOne(r.Context(), st, threshold, h.now().UTC())
	if h.metrics != nil {
		h.metrics.RecordForecast("predict", time.Since(start), err == nil && fc.Alert.Alerted, err)
	}
	if err != nil {
		h.writeForecastError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.PredictResponse{
		StationID: fc.StationID,
		Forecast:  forecastPayload(fc),
		Alert:     alertPayload(fc),
	})
}

// PredictOcean handles POST /api/predict-ocean.
func (h *PredictHandler) PredictOcean(w http.ResponseWriter, r *http.Request) {
	var req models.PredictOceanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if req.Ocean == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "ocean", Message: "ocean region id is required", Code: "required"},
		})
		return
	}
	threshold, fieldErr := resolveThreshold(req.Threshold)
	if fieldErr != nil {
		response.BadRequest(w, r, "validation failed", []models.FieldError{*fieldErr})
		return
	}

	maxStations := h.stationCap
	if req.MaxStations != nil {
		if *req.MaxStations < 1 {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "max_stations", Message: "max_stations must be positive", Code: "min"},
			})
			return
		}
		if *req.MaxStations < maxStations {
			maxStations = *req.MaxStations
		}
	}

	start := time.Now()
	regionFc, err := h.regions.ForecastRegion(r.Context(), req.Ocean, threshold, h.now().UTC(), maxStations)
	if err != nil {
		if errors.Is(err, station.ErrUnknownRegion) {
			response.NotFound(w, r, "unknown ocean region: "+req.Ocean)
			return
		}
		response.InternalError(w, r, "region forecast failed")
		return
	}
	batch := regionFc.Batch
	if h.metrics != nil {
		h.metrics.RecordBatch("predict_ocean", time.Since(start), batch.SuccessCount(), batch.FailureCount(), batch.AlertCount())
	}

	resp := models.PredictOceanResponse{
		RegionID:      regionFc.Region.ID,
		RegionName:    regionFc.Region.Name,
		ThresholdM:    regionFc.Threshold,
		Predictions:   make([]models.StationPrediction, 0, len(batch.Results)),
		Failures:      make([]models.StationFailure, 0, len(batch.Failures)),
		TotalStations: batch.TotalStations,
		AlertCount:    batch.AlertCount(),
	}
	for _, fc := range batch.Results {
		resp.Predictions = append(resp.Predictions, models.StationPrediction{
			StationID: fc.StationID,
			Lat:       fc.Lat,
			Lon:       fc.Lon,
			Forecast:  forecastPayload(fc),
			Alert:     alertPayload(fc),
		})
	}
	for _, f := range batch.Failures {
		resp.Failures = append(resp.Failures, models.StationFailure{
			StationID: f.StationID,
			Reason:    f.Reason,
		})
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// writeForecastError maps pipeline errors onto problem responses.
func (h *PredictHandler) writeForecastError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, patch.ErrTemporalGapExceeded):
		response.ServiceUnavailable(w, r, "source data gap too large for a reliable forecast")
	case errors.Is(err, patch.ErrPatchUnavailable):
		response.ServiceUnavailable(w, r, "grid data unavailable for the requested window")
	case errors.Is(err, forecast.ErrInvalidForecast):
		response.BadGateway(w, r, "predictor returned invalid output")
	case errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "upstream provider temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "forecast timed out")
	default:
		response.InternalError(w, r, "forecast failed")
	}
}

func resolveThreshold(t *float64) (float64, *models.FieldError) {
	if t == nil {
		return DefaultThreshold, nil
	}
	if *t <= 0 {
		return 0, &models.FieldError{Field: "threshold", Message: "threshold must be positive", Code: "min"}
	}
	return *t, nil
}

func forecastPayload(fc forecast.StationForecast) models.Forecast {
	return models.Forecast{
		LeadHours:  fc.Forecast.LeadHours,
		SwhM:       fc.Forecast.Values,
		ThresholdM: fc.Forecast.Threshold,
	}
}

func alertPayload(fc forecast.StationForecast) models.Alert {
	return models.Alert{
		Exceed:      fc.Alert.Exceed,
		LeadHours:   fc.Alert.LeadHours,
		Swh:         fc.Alert.Values,
		Alerted:     fc.Alert.Alerted,
		MaxValueM:   fc.Alert.MaxValue,
		MaxLeadHour: fc.Alert.MaxLeadHour,
		GeneratedAt: fc.Alert.GeneratedAt,
	}
}
