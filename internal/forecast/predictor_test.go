package forecast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/patch"
)

func syntheticSample(stationID string) *patch.Sample {
	wave := patch.NewTensor(4, 3, 5, 5)
	wave.Fill(2.5)
	atmos := patch.NewTensor(4, 3, 5, 5)

	return &patch.Sample{
		StationID:     stationID,
		ReferenceTime: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
		Wave:          wave,
		Atmosphere:    atmos,
	}
}

func TestSyntheticPredictorDeterministic(t *testing.T) {
	p := forecast.NewSyntheticPredictor()
	sample := syntheticSample("46042")

	first, err := p.Predict(context.Background(), sample, 6)
	require.NoError(t, err)
	require.Len(t, first, 6)

	second, err := p.Predict(context.Background(), sample, 6)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same station and hour must produce the same forecast")
}

func TestSyntheticPredictorVariesByStation(t *testing.T) {
	p := forecast.NewSyntheticPredictor()

	a, err := p.Predict(context.Background(), syntheticSample("46042"), 6)
	require.NoError(t, err)
	b, err := p.Predict(context.Background(), syntheticSample("46026"), 6)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSyntheticPredictorNeverNegative(t *testing.T) {
	p := forecast.NewSyntheticPredictor()

	// A sample with no usable wave data falls back to a calm baseline.
	sample := syntheticSample("51001")
	sample.Wave.Fill(patch.NoData)

	values, err := p.Predict(context.Background(), sample, 6)
	require.NoError(t, err)

	for i, v := range values {
		assert.GreaterOrEqual(t, v, 0.0, "lead hour %d", i+1)
	}
}
