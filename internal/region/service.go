// Package region aggregates per-station forecasts across an ocean
// region.
package region

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/station"
)

// Forecast is the outcome of a region sweep: the resolved region, the
// per-station batch, and the parameters the sweep ran with.
type Forecast struct {
	Region        station.Region `json:"region"`
	Threshold     float64        `json:"threshold_m"`
	ReferenceTime time.Time      `json:"reference_time"`
	Batch         forecast.Batch `json:"batch"`
}

// Engine is the batched-forecast dependency of the service.
type Engine interface {
	ForecastMany(ctx context.Context, stations []station.Record, threshold float64, refTime time.Time, maxStations int) forecast.Batch
}

// Service resolves a region to its stations and runs a batched forecast
// over them.
type Service struct {
	catalog *station.Catalog
	engine  Engine
	logger  zerolog.Logger
}

// NewService creates a region forecast service.
func NewService(catalog *station.Catalog, engine Engine, logger zerolog.Logger) *Service {
	return &Service{
		catalog: catalog,
		engine:  engine,
		logger:  logger.With().Str("component", "region_service").Logger(),
	}
}

// ForecastRegion forecasts at most maxStations stations in the region,
// in ascending station-ID order. Region names are normalized, so
// "North Pacific" and "north_pacific" resolve to the same region. Fails
// with station.ErrUnknownRegion for unrecognized identifiers.
func (s *Service) ForecastRegion(ctx context.Context, regionID string, threshold float64, refTime time.Time, maxStations int) (*Forecast, error) {
	normalized := station.NormalizeRegionID(regionID)

	reg, err := station.RegionByID(normalized)
	if err != nil {
		return nil, err
	}

	// The engine applies the cap so excluded stations are counted, not
	// failed.
	stations, total, err := s.catalog.StationsInRegion(normalized, 0)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("region", reg.ID).
		Int("stations", total).
		Int("max_stations", maxStations).
		Float64("threshold_m", threshold).
		Msg("starting region forecast")

	batch := s.engine.ForecastMany(ctx, stations, threshold, refTime, maxStations)

	return &Forecast{
		Region:        reg,
		Threshold:     threshold,
		ReferenceTime: refTime.UTC().Truncate(time.Hour),
		Batch:         batch,
	}, nil
}
