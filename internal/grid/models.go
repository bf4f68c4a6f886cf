// Package grid defines the gridded field provider contract consumed by the
// patch builder. Binary grid decoding (GRIB and friends) happens outside
// this service; providers hand back typed arrays with coordinate axes.
package grid

import (
	"context"
	"errors"
	"time"
)

// Source identifies one of the two gridded data sources.
type Source string

const (
	// SourceWave is the wave-state model output (WW3-class product).
	SourceWave Source = "wave"

	// SourceAtmosphere is the atmosphere-state model output (GFS-class product).
	SourceAtmosphere Source = "atmosphere"
)

// Channel sets are fixed per deployment.
var (
	// WaveChannels are the wave-source fields: significant wave height,
	// mean wave period, mean wave direction.
	WaveChannels = []string{"swh", "mwp", "mwd"}

	// AtmosphereChannels are the atmosphere-source fields: 10 m wind
	// components and mean sea level pressure.
	AtmosphereChannels = []string{"10u", "10v", "prmsl"}
)

// ErrDataUnavailable is returned when the requested source/time cannot be
// served.
var ErrDataUnavailable = errors.New("grid data unavailable")

// Snapshot is a set of 2-D channel fields at a single timestamp, together
// with its coordinate axes. Axes may differ in resolution and extent
// between sources, and longitudes may use either the -180..180 or 0..360
// convention.
type Snapshot struct {
	Source   Source
	Time     time.Time
	Channels []string

	// Lats and Lons are the coordinate axes, ascending.
	Lats []float64
	Lons []float64

	// Data is indexed [channel][lat][lon].
	Data [][][]float64
}

// Value returns the field value for channel c at grid cell (i, j).
func (s *Snapshot) Value(c, i, j int) float64 {
	return s.Data[c][i][j]
}

// Validate checks that the data block matches the declared axes.
func (s *Snapshot) Validate() error {
	if len(s.Channels) == 0 || len(s.Lats) == 0 || len(s.Lons) == 0 {
		return errors.New("snapshot missing axes or channels")
	}
	if len(s.Data) != len(s.Channels) {
		return errors.New("snapshot channel count mismatch")
	}
	for _, field := range s.Data {
		if len(field) != len(s.Lats) {
			return errors.New("snapshot latitude extent mismatch")
		}
		for _, row := range field {
			if len(row) != len(s.Lons) {
				return errors.New("snapshot longitude extent mismatch")
			}
		}
	}
	return nil
}

// Provider serves grid snapshots. Implementations must be safe for
// concurrent use; the core never caches snapshots across build calls.
type Provider interface {
	// Snapshot returns the fields for the given source and channels at
	// the given time, failing with ErrDataUnavailable if that time/source
	// cannot be served.
	Snapshot(ctx context.Context, source Source, at time.Time, channels []string) (*Snapshot, error)

	// Name returns the provider name for logging.
	Name() string
}
