package region

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swellwatch/swellwatch/internal/forecast"
	"github.com/swellwatch/swellwatch/internal/station"
)

// recordingEngine captures the stations handed to it and succeeds for
// all of them.
type recordingEngine struct {
	stations    []station.Record
	maxStations int
}

func (e *recordingEngine) ForecastMany(_ context.Context, stations []station.Record, threshold float64, refTime time.Time, maxStations int) forecast.Batch {
	e.stations = stations
	e.maxStations = maxStations

	batch := forecast.Batch{TotalStations: len(stations)}
	capped := stations
	if maxStations > 0 && len(capped) > maxStations {
		capped = capped[:maxStations]
	}
	for _, st := range capped {
		batch.Results = append(batch.Results, forecast.StationForecast{StationID: st.ID, Lat: st.Lat, Lon: st.Lon})
	}
	return batch
}

func testCatalog(t *testing.T) *station.Catalog {
	t.Helper()
	catalog, err := station.NewCatalog([]station.Record{
		{ID: "46042", Lat: 36.785, Lon: -122.398}, // us_west_coast
		{ID: "46026", Lat: 37.754, Lon: -122.839}, // us_west_coast
		{ID: "41001", Lat: 34.625, Lon: -72.617},  // us_east_coast
	})
	require.NoError(t, err)
	return catalog
}

func TestForecastRegion(t *testing.T) {
	engine := &recordingEngine{}
	svc := NewService(testCatalog(t), engine, zerolog.Nop())

	refTime := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	fc, err := svc.ForecastRegion(context.Background(), "us_west_coast", 4.0, refTime, 50)
	require.NoError(t, err)

	assert.Equal(t, "us_west_coast", fc.Region.ID)
	assert.InDelta(t, 4.0, fc.Threshold, 1e-9)
	assert.Equal(t, refTime.Truncate(time.Hour), fc.ReferenceTime)

	require.Len(t, engine.stations, 2)
	assert.Equal(t, "46026", engine.stations[0].ID)
	assert.Equal(t, "46042", engine.stations[1].ID)
	assert.Equal(t, 50, engine.maxStations)
	assert.Equal(t, 2, fc.Batch.SuccessCount())
}

func TestForecastRegionNormalizesName(t *testing.T) {
	svc := NewService(testCatalog(t), &recordingEngine{}, zerolog.Nop())

	fc, err := svc.ForecastRegion(context.Background(), "US West Coast", 4.0, time.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, "us_west_coast", fc.Region.ID)
}

func TestForecastRegionUnknown(t *testing.T) {
	svc := NewService(testCatalog(t), &recordingEngine{}, zerolog.Nop())

	_, err := svc.ForecastRegion(context.Background(), "atlantis", 4.0, time.Now(), 0)
	assert.ErrorIs(t, err, station.ErrUnknownRegion)
}

func TestForecastRegionEmptyRegion(t *testing.T) {
	engine := &recordingEngine{}
	svc := NewService(testCatalog(t), engine, zerolog.Nop())

	fc, err := svc.ForecastRegion(context.Background(), "mediterranean", 4.0, time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, engine.stations)
	assert.Equal(t, 0, fc.Batch.SuccessCount())
}
