package ndbc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swellwatch/swellwatch/internal/station/ndbc"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<stations created="2026-08-26T00:00:00UTC" count="4">
  <station id="46042" lat="36.785" lon="-122.398" name="MONTEREY" type="buoy"/>
  <station id="46026" lat="37.755" lon="-122.839" name="SAN FRANCISCO" type="buoy"/>
  <station id="41001" lat="34.714" lon="-72.317" name="EAST HATTERAS" type="buoy"/>
  <station id="BAD01" lat="not-a-number" lon="-120.0" name="BROKEN" type="buoy"/>
</stations>`

func TestClient_Stations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	client := ndbc.NewClient(ndbc.ClientConfig{
		FeedURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	records, err := client.Stations(context.Background())
	require.NoError(t, err)

	// Malformed "BAD01" entry is skipped, not fatal.
	require.Len(t, records, 3)
	assert.Equal(t, "46042", records[0].ID)
	assert.InDelta(t, 36.785, records[0].Lat, 1e-9)
	assert.InDelta(t, -122.398, records[0].Lon, 1e-9)
}

func TestClient_Stations_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := ndbc.NewClient(ndbc.ClientConfig{
		FeedURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	_, err := client.Stations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code")
}

func TestClient_Stations_MalformedXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"xml"}`))
	}))
	defer server.Close()

	client := ndbc.NewClient(ndbc.ClientConfig{
		FeedURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	_, err := client.Stations(context.Background())
	require.Error(t, err)
}
