// Package worker provides the background region sweep for swellwatch.
package worker

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SweepConfig holds configuration for the region sweep job.
type SweepConfig struct {
	// Regions are the ocean region ids to sweep each cycle.
	Regions []string

	// Interval is the time between sweep cycles.
	// Default: 1 hour, matching the hourly forecast cadence.
	Interval time.Duration

	// Threshold is the wave-height alert threshold in meters.
	// Default: 4.0
	Threshold float64

	// MaxStations bounds the stations forecast per region.
	// Default: 50
	MaxStations int
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Regions:     []string{"us_west_coast", "us_east_coast", "hawaii", "alaska"},
		Interval:    time.Hour,
		Threshold:   4.0,
		MaxStations: 50,
	}
}

// SweepConfigFromEnv creates a SweepConfig from environment variables,
// falling back to defaults for anything unset.
func SweepConfigFromEnv() SweepConfig {
	cfg := DefaultSweepConfig()

	if regions := os.Getenv("SWEEP_REGIONS"); regions != "" {
		cfg.Regions = nil
		for _, r := range strings.Split(regions, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.Regions = append(cfg.Regions, r)
			}
		}
	}
	if interval, err := time.ParseDuration(os.Getenv("SWEEP_INTERVAL")); err == nil && interval > 0 {
		cfg.Interval = interval
	}
	if threshold, err := strconv.ParseFloat(os.Getenv("ALERT_THRESHOLD_M"), 64); err == nil && threshold > 0 {
		cfg.Threshold = threshold
	}
	if maxStations, err := strconv.Atoi(os.Getenv("SWEEP_MAX_STATIONS")); err == nil && maxStations > 0 {
		cfg.MaxStations = maxStations
	}

	return cfg
}
