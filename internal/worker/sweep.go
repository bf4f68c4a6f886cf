package worker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/alert"
	"github.com/swellwatch/swellwatch/internal/api/middleware"
	"github.com/swellwatch/swellwatch/internal/notify"
	"github.com/swellwatch/swellwatch/internal/region"
)

// RegionForecaster runs one region's batched forecast.
type RegionForecaster interface {
	ForecastRegion(ctx context.Context, regionID string, threshold float64, refTime time.Time, maxStations int) (*region.Forecast, error)
}

// AlertDispatcher delivers one alert event to the webhook.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, event alert.Event) (notify.Outcome, error)
}

// EventPublisher publishes evaluated events to the alert stream.
type EventPublisher interface {
	Publish(ctx context.Context, event alert.Event) error
}

// SweepJob periodically forecasts the configured regions and fans alert
// events out to the webhook dispatcher and the event stream.
type SweepJob struct {
	config     SweepConfig
	logger     zerolog.Logger
	regions    RegionForecaster
	dispatcher AlertDispatcher
	stream     EventPublisher
	metrics    *middleware.ForecastMetrics
	clock      clockwork.Clock
}

// SweepJobConfig holds configuration for creating a SweepJob. Stream,
// Metrics, and Clock are optional.
type SweepJobConfig struct {
	Config     SweepConfig
	Logger     zerolog.Logger
	Regions    RegionForecaster
	Dispatcher AlertDispatcher
	Stream     EventPublisher
	Metrics    *middleware.ForecastMetrics
	Clock      clockwork.Clock
}

// NewSweepJob creates a new sweep job.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	config := cfg.Config
	if len(config.Regions) == 0 {
		config = DefaultSweepConfig()
	}

	return &SweepJob{
		config:     config,
		logger:     cfg.Logger.With().Str("component", "sweep").Logger(),
		regions:    cfg.Regions,
		dispatcher: cfg.Dispatcher,
		stream:     cfg.Stream,
		metrics:    cfg.Metrics,
		clock:      clock,
	}
}

// SweepResult summarizes one sweep cycle.
type SweepResult struct {
	StartTime time.Time
	Duration  time.Duration

	RegionsSwept int
	Stations     int
	Failures     int
	Alerts       int
	Delivered    int
	Undelivered  int
}

// Run executes sweeps on the configured interval until ctx is done. The
// first sweep fires immediately.
func (j *SweepJob) Run(ctx context.Context) {
	j.logger.Info().
		Strs("regions", j.config.Regions).
		Dur("interval", j.config.Interval).
		Float64("threshold_m", j.config.Threshold).
		Msg("sweep worker started")

	j.RunOnce(ctx)

	ticker := j.clock.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("sweep worker stopping")
			return
		case <-ticker.Chan():
			j.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps every configured region one time.
func (j *SweepJob) RunOnce(ctx context.Context) *SweepResult {
	start := j.clock.Now()
	result := &SweepResult{StartTime: start}

	for _, regionID := range j.config.Regions {
		if ctx.Err() != nil {
			break
		}
		j.sweepRegion(ctx, regionID, start, result)
	}

	result.Duration = j.clock.Since(start)

	j.logger.Info().
		Int("regions", result.RegionsSwept).
		Int("stations", result.Stations).
		Int("failures", result.Failures).
		Int("alerts", result.Alerts).
		Int("delivered", result.Delivered).
		Dur("duration", result.Duration).
		Msg("sweep complete")

	return result
}

func (j *SweepJob) sweepRegion(ctx context.Context, regionID string, refTime time.Time, result *SweepResult) {
	sweepStart := j.clock.Now()

	fc, err := j.regions.ForecastRegion(ctx, regionID, j.config.Threshold, refTime, j.config.MaxStations)
	if err != nil {
		j.logger.Error().Str("region", regionID).Err(err).Msg("region sweep failed")
		return
	}
	result.RegionsSwept++
	result.Stations += fc.Batch.SuccessCount()
	result.Failures += fc.Batch.FailureCount()
	result.Alerts += fc.Batch.AlertCount()

	if j.metrics != nil {
		j.metrics.RecordBatch("sweep", j.clock.Since(sweepStart),
			fc.Batch.SuccessCount(), fc.Batch.FailureCount(), fc.Batch.AlertCount())
	}

	for _, stationFc := range fc.Batch.Results {
		event := stationFc.Alert

		if j.stream != nil {
			if err := j.stream.Publish(ctx, event); err != nil {
				j.logger.Warn().
					Str("station_id", event.StationID).
					Err(err).
					Msg("alert stream publish failed")
			}
		}

		if !event.Alerted || j.dispatcher == nil {
			continue
		}

		outcome, err := j.dispatcher.Dispatch(ctx, event)
		if err != nil {
			// Delivery failures never invalidate the sweep itself.
			result.Undelivered++
			continue
		}
		if outcome.Delivered {
			result.Delivered++
		}
	}
}
