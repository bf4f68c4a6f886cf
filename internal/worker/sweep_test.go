package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swellwatch/swellwatch/internal/alert"
	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/notify"
	"github.com/swellwatch/swellwatch/internal/region"
	"github.com/swellwatch/swellwatch/internal/station"
	"github.com/swellwatch/swellwatch/internal/worker"
)

// fakeRegionService returns one alerted and one quiet station per
// region, and counts calls.
type fakeRegionService struct {
	mu      sync.Mutex
	calls   []string
	swept   chan struct{}
	failFor string
}

func newFakeRegionService() *fakeRegionService {
	return &fakeRegionService{swept: make(chan struct{}, 16)}
}

func (s *fakeRegionService) ForecastRegion(_ context.Context, regionID string, threshold float64, refTime time.Time, _ int) (*region.Forecast, error) {
	s.mu.Lock()
	s.calls = append(s.calls, regionID)
	s.mu.Unlock()
	defer func() { s.swept <- struct{}{} }()

	if regionID == s.failFor {
		return nil, station.ErrUnknownRegion
	}

	alerted, _ := alert.Evaluate("46042", []int{1, 2}, []float64{5.0, 3.0}, threshold, refTime)
	quiet, _ := alert.Evaluate("46026", []int{1, 2}, []float64{1.0, 1.5}, threshold, refTime)

	return &region.Forecast{
		Region:    station.Region{ID: regionID},
		Threshold: threshold,
		Batch: forecast.Batch{
			TotalStations: 2,
			Results: []forecast.StationForecast{
				{StationID: "46042", Alert: alerted},
				{StationID: "46026", Alert: quiet},
			},
		},
	}, nil
}

func (s *fakeRegionService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeDispatcher records dispatched events.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []alert.Event
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event alert.Event) (notify.Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return notify.Outcome{StationID: event.StationID}, d.err
	}
	d.events = append(d.events, event)
	return notify.Outcome{StationID: event.StationID, Delivered: true, Attempts: 1}, nil
}

// fakePublisher records every published event.
type fakePublisher struct {
	mu     sync.Mutex
	events []alert.Event
}

func (p *fakePublisher) Publish(_ context.Context, event alert.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestRunOnce(t *testing.T) {
	regions := newFakeRegionService()
	dispatcher := &fakeDispatcher{}
	publisher := &fakePublisher{}

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Regions:     []string{"us_west_coast", "us_east_coast"},
			Interval:    time.Hour,
			Threshold:   4.0,
			MaxStations: 50,
		},
		Logger:     zerolog.Nop(),
		Regions:    regions,
		Dispatcher: dispatcher,
		Stream:     publisher,
		Clock:      clockwork.NewFakeClock(),
	})

	result := job.RunOnce(context.Background())

	assert.Equal(t, 2, result.RegionsSwept)
	assert.Equal(t, 4, result.Stations)
	assert.Equal(t, 2, result.Alerts)
	assert.Equal(t, 2, result.Delivered)

	// Only alerted events reach the webhook.
	require.Len(t, dispatcher.events, 2)
	for _, e := range dispatcher.events {
		assert.Equal(t, "46042", e.StationID)
		assert.True(t, e.Alerted)
	}

	// Every evaluated event reaches the stream, alerted or not.
	assert.Len(t, publisher.events, 4)
}

func TestRunOnceSurvivesRegionFailure(t *testing.T) {
	regions := newFakeRegionService()
	regions.failFor = "us_west_coast"

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Regions:   []string{"us_west_coast", "us_east_coast"},
			Interval:  time.Hour,
			Threshold: 4.0,
		},
		Logger:     zerolog.Nop(),
		Regions:    regions,
		Dispatcher: &fakeDispatcher{},
		Clock:      clockwork.NewFakeClock(),
	})

	result := job.RunOnce(context.Background())

	assert.Equal(t, 1, result.RegionsSwept)
	assert.Equal(t, 2, regions.callCount())
}

func TestRunOnceCountsUndelivered(t *testing.T) {
	regions := newFakeRegionService()
	dispatcher := &fakeDispatcher{err: notify.ErrDeliveryFailed}

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Regions:   []string{"us_west_coast"},
			Interval:  time.Hour,
			Threshold: 4.0,
		},
		Logger:     zerolog.Nop(),
		Regions:    regions,
		Dispatcher: dispatcher,
		Clock:      clockwork.NewFakeClock(),
	})

	result := job.RunOnce(context.Background())

	assert.Equal(t, 1, result.Alerts)
	assert.Equal(t, 0, result.Delivered)
	assert.Equal(t, 1, result.Undelivered)
}

func TestRunSweepsOnInterval(t *testing.T) {
	regions := newFakeRegionService()
	clock := clockwork.NewFakeClock()

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Regions:   []string{"us_west_coast"},
			Interval:  time.Hour,
			Threshold: 4.0,
		},
		Logger:     zerolog.Nop(),
		Regions:    regions,
		Dispatcher: &fakeDispatcher{},
		Clock:      clock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	// Initial sweep fires immediately.
	waitForSweep(t, regions.swept)

	// Advance one interval; the ticker drives the next sweep.
	clock.BlockUntil(1)
	clock.Advance(time.Hour)
	waitForSweep(t, regions.swept)

	clock.Advance(time.Hour)
	waitForSweep(t, regions.swept)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, regions.callCount(), 3)
}

func TestSweepConfigFromEnv(t *testing.T) {
	t.Setenv("SWEEP_REGIONS", "hawaii, bering_sea")
	t.Setenv("SWEEP_INTERVAL", "30m")
	t.Setenv("ALERT_THRESHOLD_M", "3.5")
	t.Setenv("SWEEP_MAX_STATIONS", "10")

	cfg := worker.SweepConfigFromEnv()

	assert.Equal(t, []string{"hawaii", "bering_sea"}, cfg.Regions)
	assert.Equal(t, 30*time.Minute, cfg.Interval)
	assert.InDelta(t, 3.5, cfg.Threshold, 1e-9)
	assert.Equal(t, 10, cfg.MaxStations)
}

func TestDefaultSweepConfig(t *testing.T) {
	cfg := worker.DefaultSweepConfig()

	assert.Equal(t, time.Hour, cfg.Interval)
	assert.InDelta(t, 4.0, cfg.Threshold, 1e-9)
	assert.Equal(t, 50, cfg.MaxStations)
	assert.NotEmpty(t, cfg.Regions)
}

func waitForSweep(t *testing.T, swept chan struct{}) {
	t.Helper()
	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sweep")
	}
}
