// Package patch assembles station-centered forecast input samples from
// gridded wave and atmosphere fields. A sample pairs two tensors covering
// the same trailing hourly window and the same spatial extent around a
// station, resampled from each source's native cadence.
package patch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/grid"
	"github.com/swellwatch/swellwatch/internal/station"
)

var (
	// ErrPatchUnavailable indicates the required grid or station data
	// could not be assembled into a sample.
	ErrPatchUnavailable = errors.New("patch unavailable")

	// ErrTemporalGapExceeded indicates a slot in the trailing window had
	// no source snapshot within the configured hold-forward gap. It is a
	// sub-kind of ErrPatchUnavailable.
	ErrTemporalGapExceeded = fmt.Errorf("temporal gap exceeded: %w", ErrPatchUnavailable)
)

// Sample is the per-station forecast input: one tensor per source,
// shaped [TimeSteps, channels, PatchSize, PatchSize], covering the same
// trailing hourly steps ending at ReferenceTime.
type Sample struct {
	StationID     string
	ReferenceTime time.Time
	Wave          *Tensor
	Atmosphere    *Tensor
}

// Config holds the builder parameters.
type Config struct {
	// TimeSteps is the number of trailing hourly steps per sample.
	TimeSteps int

	// PatchSize is the spatial window width and height in grid cells.
	PatchSize int

	// MaxGapHours is the furthest back a missing hourly slot may be
	// filled from an earlier snapshot before the build fails.
	MaxGapHours int
}

// DefaultConfig returns the default builder parameters.
func DefaultConfig() Config {
	return Config{
		TimeSteps:   12,
		PatchSize:   9,
		MaxGapHours: 3,
	}
}

// Builder assembles samples from a grid provider. It is safe for
// concurrent use; snapshot caching is scoped to a single Build call so a
// stale field can never leak into a later reference time.
type Builder struct {
	provider grid.Provider
	cfg      Config
	logger   zerolog.Logger
}

// NewBuilder creates a patch builder.
func NewBuilder(provider grid.Provider, cfg Config, logger zerolog.Logger) *Builder {
	return &Builder{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With().Str("component", "patch_builder").Logger(),
	}
}

// Build assembles the sample for one station with the trailing window
// ending at refTime. refTime is truncated to the hour.
func (b *Builder) Build(ctx context.Context, st station.Record, refTime time.Time) (*Sample, error) {
	refTime = refTime.UTC().Truncate(time.Hour)

	wave, err := b.buildTensor(ctx, st, refTime, grid.SourceWave, grid.WaveChannels)
	if err != nil {
		return nil, err
	}
	atmos, err := b.buildTensor(ctx, st, refTime, grid.SourceAtmosphere, grid.AtmosphereChannels)
	if err != nil {
		return nil, err
	}

	return &Sample{
		StationID:     st.ID,
		ReferenceTime: refTime,
		Wave:          wave,
		Atmosphere:    atmos,
	}, nil
}

// buildTensor fills one source's tensor across the trailing window,
// holding the nearest earlier snapshot forward into empty hourly slots.
func (b *Builder) buildTensor(ctx context.Context, st station.Record, refTime time.Time, source grid.Source, channels []string) (*Tensor, error) {
	tensor := NewTensor(b.cfg.TimeSteps, len(channels), b.cfg.PatchSize, b.cfg.PatchSize)

	// Cache within this build only. A nil entry records a confirmed miss
	// so we never probe the same hour twice.
	cache := make(map[time.Time]*grid.Snapshot)

	for step := 0; step < b.cfg.TimeSteps; step++ {
		slot := refTime.Add(-time.Duration(b.cfg.TimeSteps-1-step) * time.Hour)

		snap, err := b.snapshotFor(ctx, source, channels, slot, cache)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			b.logger.Warn().
				Str("station_id", st.ID).
				Str("source", string(source)).
				Time("slot", slot).
				Int("max_gap_hours", b.cfg.MaxGapHours).
				Msg("no snapshot within hold-forward gap")
			return nil, fmt.Errorf("%s slot %s for station %s: %w",
				source, slot.Format(time.RFC3339), st.ID, ErrTemporalGapExceeded)
		}

		if err := b.cropInto(tensor, step, snap, st); err != nil {
			return nil, err
		}
	}

	return tensor, nil
}

// snapshotFor returns the snapshot for slot, probing earlier hours up to
// the configured gap. Returns nil when nothing is available in range.
func (b *Builder) snapshotFor(ctx context.Context, source grid.Source, channels []string, slot time.Time, cache map[time.Time]*grid.Snapshot) (*grid.Snapshot, error) {
	for back := 0; back <= b.cfg.MaxGapHours; back++ {
		at := slot.Add(-time.Duration(back) * time.Hour)

		snap, seen := cache[at]
		if !seen {
			var err error
			snap, err = b.provider.Snapshot(ctx, source, at, channels)
			if err != nil {
				if !errors.Is(err, grid.ErrDataUnavailable) {
					return nil, fmt.Errorf("fetching %s snapshot: %w: %w", source, ErrPatchUnavailable, err)
				}
				snap = nil
			}
			cache[at] = snap
		}
		if snap != nil {
			return snap, nil
		}
	}
	return nil, nil
}

// cropInto writes a station-centered PatchSize×PatchSize window of each
// channel into the tensor at the given step. Cells outside the grid
// extent are filled with NoData so the window shape never varies.
func (b *Builder) cropInto(tensor *Tensor, step int, snap *grid.Snapshot, st station.Record) error {
	lon := st.Lon
	// Some sources publish 0..360 longitudes.
	if len(snap.Lons) > 0 && snap.Lons[len(snap.Lons)-1] > 180 && lon < 0 {
		lon += 360
	}

	ci := nearestIndex(snap.Lats, st.Lat)
	cj := nearestIndex(snap.Lons, lon)
	half := b.cfg.PatchSize / 2

	for c := range snap.Channels {
		for di := 0; di < b.cfg.PatchSize; di++ {
			gi := ci - half + di
			for dj := 0; dj < b.cfg.PatchSize; dj++ {
				gj := cj - half + dj
				v := NoData
				if gi >= 0 && gi < len(snap.Lats) && gj >= 0 && gj < len(snap.Lons) {
					v = snap.Value(c, gi, gj)
				}
				tensor.Set(step, c, di, dj, v)
			}
		}
	}
	return nil
}

// nearestIndex returns the index of the axis value closest to v. The
// axis must be ascending.
func nearestIndex(axis []float64, v float64) int {
	i := sort.SearchFloat64s(axis, v)
	if i == 0 {
		return 0
	}
	if i == len(axis) {
		return len(axis) - 1
	}
	if math.Abs(axis[i]-v) < math.Abs(v-axis[i-1]) {
		return i
	}
	return i - 1
}
