package forecast

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/swellwatch/swellwatch/internal/patch"
)

// Predictor turns an aligned patch sample into a sequence of wave-height
// values, one per forecast lead hour. Implementations must be safe for
// concurrent use and deterministic for identical inputs.
type Predictor interface {
	Predict(ctx context.Context, sample *patch.Sample, horizon int) ([]float64, error)
	Name() string
}

// SyntheticPredictor produces deterministic forecasts without a model
// server. Used in development deployments and tests; the output is a
// smooth series seeded from the station and reference time, anchored to
// the sample's recent wave field so it tracks real conditions loosely.
type SyntheticPredictor struct{}

// NewSyntheticPredictor creates a synthetic predictor.
func NewSyntheticPredictor() *SyntheticPredictor {
	return &SyntheticPredictor{}
}

// Predict returns horizon values derived from the sample.
func (p *SyntheticPredictor) Predict(_ context.Context, sample *patch.Sample, horizon int) ([]float64, error) {
	base := recentWaveHeight(sample)

	h := fnv.New64a()
	h.Write([]byte(sample.StationID))
	h.Write([]byte(sample.ReferenceTime.UTC().Format("2006-01-02T15")))
	seed := h.Sum64()

	// Phase and amplitude vary per station/hour so regions show a mix
	// of alerting and quiet stations.
	phase := float64(seed%360) * math.Pi / 180
	amp := 0.5 + float64(seed%17)/8.0

	values := make([]float64, horizon)
	for i := range values {
		values[i] = base + amp*math.Sin(phase+float64(i)*0.6)
		if values[i] < 0 {
			values[i] = 0
		}
	}
	return values, nil
}

// Name returns the predictor name.
func (p *SyntheticPredictor) Name() string { return "synthetic" }

// recentWaveHeight averages the significant-wave-height channel at the
// patch centre over the most recent steps, skipping no-data fill.
func recentWaveHeight(sample *patch.Sample) float64 {
	steps, _, rows, cols := sample.Wave.Shape()
	ci, cj := rows/2, cols/2

	sum, n := 0.0, 0
	for s := steps - 3; s < steps; s++ {
		if s < 0 {
			continue
		}
		v := sample.Wave.At(s, 0, ci, cj)
		if v == patch.NoData {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 2.0
	}
	return sum / float64(n)
}
