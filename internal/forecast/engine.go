package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/alert"
	"github.com/swellwatch/swellwatch/internal/patch"
	"github.com/swellwatch/swellwatch/internal/station"
)

// Config holds the engine parameters.
type Config struct {
	// Horizon is the number of forecast lead hours (1..Horizon).
	Horizon int

	// Concurrency bounds parallel station forecasts in a batch.
	Concurrency int

	// StationTimeout caps the time spent on a single station, patch
	// build and prediction together.
	StationTimeout time.Duration
}

// DefaultConfig returns the default engine parameters.
func DefaultConfig() Config {
	return Config{
		Horizon:        6,
		Concurrency:    4,
		StationTimeout: 30 * time.Second,
	}
}

// SampleBuilder assembles a station's forecast input sample.
type SampleBuilder interface {
	Build(ctx context.Context, st station.Record, refTime time.Time) (*patch.Sample, error)
}

// Engine drives single-station and batched forecasts. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	builder   SampleBuilder
	predictor Predictor
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEngine creates a forecast engine.
func NewEngine(builder SampleBuilder, predictor Predictor, cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		builder:   builder,
		predictor: predictor,
		cfg:       cfg,
		logger:    logger.With().Str("component", "forecast_engine").Logger(),
		now:       time.Now,
	}
}

// Horizon returns the configured number of lead hours.
func (e *Engine) Horizon() int { return e.cfg.Horizon }

// ForecastOne builds one station's patch, predicts, and thresholds the
// result. refTime is the end of the trailing input window.
func (e *Engine) ForecastOne(ctx context.Context, st station.Record, threshold float64, refTime time.Time) (StationForecast, error) {
	if e.cfg.StationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StationTimeout)
		defer cancel()
	}

	sample, err := e.builder.Build(ctx, st, refTime)
	if err != nil {
		return StationForecast{}, fmt.Errorf("building patch for %s: %w", st.ID, err)
	}

	values, err := e.predictor.Predict(ctx, sample, e.cfg.Horizon)
	if err != nil {
		return StationForecast{}, fmt.Errorf("predicting for %s: %w", st.ID, err)
	}

	leadHours := make([]int, e.cfg.Horizon)
	for i := range leadHours {
		leadHours[i] = i + 1
	}

	result := Result{
		StationID:     st.ID,
		ReferenceTime: sample.ReferenceTime,
		LeadHours:     leadHours,
		Values:        values,
		Threshold:     threshold,
	}
	if err := result.Validate(e.cfg.Horizon); err != nil {
		return StationForecast{}, fmt.Errorf("predictor %s for %s: %w", e.predictor.Name(), st.ID, err)
	}

	event, err := alert.Evaluate(st.ID, leadHours, values, threshold, e.now().UTC())
	if err != nil {
		return StationForecast{}, fmt.Errorf("evaluating alert for %s: %w", st.ID, err)
	}

	e.logger.Debug().
		Str("station_id", st.ID).
		Float64("threshold_m", threshold).
		Float64("max_value_m", event.MaxValue).
		Bool("alerted", event.Alerted).
		Msg("station forecast complete")

	return StationForecast{
		StationID: st.ID,
		Lat:       st.Lat,
		Lon:       st.Lon,
		Forecast:  result,
		Alert:     event,
	}, nil
}

// ForecastMany forecasts at most maxStations of the given stations with
// failure isolation: one station's failure is recorded and the rest
// carry on. Results preserve the input station order. Stations beyond
// the cap are excluded entirely, not treated as failures.
func (e *Engine) ForecastMany(ctx context.Context, stations []station.Record, threshold float64, refTime time.Time, maxStations int) Batch {
	total := len(stations)
	if maxStations > 0 && len(stations) > maxStations {
		stations = stations[:maxStations]
	}

	type slot struct {
		forecast StationForecast
		err      error
	}
	slots := make([]slot, len(stations))

	workers := e.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(stations) {
		workers = len(stations)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					slots[i].err = err
					continue
				}
				fc, err := e.ForecastOne(ctx, stations[i], threshold, refTime)
				slots[i] = slot{forecast: fc, err: err}
			}
		}()
	}
	for i := range stations {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// A cancelled batch is all-or-nothing: completed results are
	// discarded rather than returned partially.
	if err := ctx.Err(); err != nil {
		batch := Batch{TotalStations: total}
		for i := range stations {
			batch.Failures = append(batch.Failures, Failure{
				StationID: stations[i].ID,
				Reason:    err.Error(),
			})
		}
		e.logger.Warn().
			Int("stations", len(stations)).
			Err(err).
			Msg("batch forecast cancelled")
		return batch
	}

	batch := Batch{TotalStations: total}
	for i, s := range slots {
		if s.err != nil {
			e.logger.Warn().
				Str("station_id", stations[i].ID).
				Err(s.err).
				Msg("station forecast failed")
			batch.Failures = append(batch.Failures, Failure{
				StationID: stations[i].ID,
				Reason:    s.err.Error(),
			})
			continue
		}
		batch.Results = append(batch.Results, s.forecast)
	}

	e.logger.Info().
		Int("requested", len(stations)).
		Int("succeeded", batch.SuccessCount()).
		Int("failed", batch.FailureCount()).
		Int("alerted", batch.AlertCount()).
		Msg("batch forecast complete")

	return batch
}
