// Package alert thresholds wave-height forecasts into alert events.
package alert

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidHorizon is returned when a forecast carries no lead hours.
var ErrInvalidHorizon = errors.New("invalid forecast horizon")

// Event is the result of thresholding one station's forecast. Exceed is
// index-aligned with LeadHours and Values; the comparison is inclusive,
// so a value exactly at the threshold counts as an exceedance.
type Event struct {
	StationID   string    `json:"station_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Threshold   float64   `json:"threshold_m"`
	LeadHours   []int     `json:"lead_hours"`
	Values      []float64 `json:"swh_m"`
	Exceed      []bool    `json:"exceed"`
	Alerted     bool      `json:"alerted"`

	// MaxValue is the forecast peak; MaxLeadHour is the lead hour at
	// which it first occurs.
	MaxValue    float64 `json:"max_value_m"`
	MaxLeadHour int     `json:"max_lead_hour"`
}

// Evaluate thresholds one forecast. leadHours and values must be the
// same non-zero length, with leadHours positive and strictly increasing.
func Evaluate(stationID string, leadHours []int, values []float64, threshold float64, generatedAt time.Time) (Event, error) {
	if len(leadHours) == 0 {
		return Event{}, ErrInvalidHorizon
	}
	if len(leadHours) != len(values) {
		return Event{}, fmt.Errorf("%w: %d lead hours but %d values", ErrInvalidHorizon, len(leadHours), len(values))
	}
	prev := 0
	for _, lh := range leadHours {
		if lh <= prev {
			return Event{}, fmt.Errorf("%w: lead hours must be positive and strictly increasing", ErrInvalidHorizon)
		}
		prev = lh
	}

	event := Event{
		StationID:   stationID,
		GeneratedAt: generatedAt,
		Threshold:   threshold,
		LeadHours:   leadHours,
		Values:      values,
		Exceed:      make([]bool, len(values)),
		MaxValue:    values[0],
		MaxLeadHour: leadHours[0],
	}

	for i, v := range values {
		event.Exceed[i] = v >= threshold
		if event.Exceed[i] {
			event.Alerted = true
		}
		// Strictly-greater keeps the earliest lead hour on ties.
		if v > event.MaxValue {
			event.MaxValue = v
			event.MaxLeadHour = leadHours[i]
		}
	}

	return event, nil
}
