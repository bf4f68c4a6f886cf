// Package forecast orchestrates per-station and batched wave-height
// forecasts: it assembles patch samples, invokes a predictor, and
// thresholds the output into alert events.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/swellwatch/swellwatch/internal/alert"
)

// ErrInvalidForecast indicates the predictor returned malformed or
// non-finite output.
var ErrInvalidForecast = errors.New("invalid forecast")

// Result is one station's multi-horizon wave-height forecast. LeadHours
// and Values are index-aligned and immutable once produced.
type Result struct {
	StationID     string    `json:"station_id"`
	ReferenceTime time.Time `json:"reference_time"`
	LeadHours     []int     `json:"lead_hours"`
	Values        []float64 `json:"swh_m"`
	Threshold     float64   `json:"threshold_m"`
}

// Validate checks the result against the expected horizon.
func (r *Result) Validate(horizon int) error {
	if len(r.LeadHours) != horizon || len(r.Values) != horizon {
		return fmt.Errorf("%w: expected %d values, got %d", ErrInvalidForecast, horizon, len(r.Values))
	}
	for i, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at lead hour %d", ErrInvalidForecast, r.LeadHours[i])
		}
	}
	return nil
}

// StationForecast pairs one station's forecast with its alert event and
// the station coordinates callers render against.
type StationForecast struct {
	StationID string      `json:"station_id"`
	Lat       float64     `json:"lat"`
	Lon       float64     `json:"lon"`
	Forecast  Result      `json:"forecast"`
	Alert     alert.Event `json:"alert"`
}

// Failure records why one station in a batch could not be forecast.
// The batch carries on past failures; they never abort other stations.
type Failure struct {
	StationID string `json:"station_id"`
	Reason    string `json:"reason"`
}

// Batch is the outcome of a multi-station forecast run.
type Batch struct {
	Results  []StationForecast `json:"results"`
	Failures []Failure         `json:"failures"`

	// TotalStations is the number of candidate stations before the
	// max-station cap was applied.
	TotalStations int `json:"total_stations"`
}

// SuccessCount returns the number of stations forecast successfully.
func (b *Batch) SuccessCount() int {
	return len(b.Results)
}

// FailureCount returns the number of stations that failed.
func (b *Batch) FailureCount() int {
	return len(b.Failures)
}

// AlertCount returns the number of stations whose forecast raised an
// alert.
func (b *Batch) AlertCount() int {
	n := 0
	for _, r := range b.Results {
		if r.Alert.Alerted {
			n++
		}
	}
	return n
}
