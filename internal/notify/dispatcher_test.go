package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swellwatch/swellwatch/internal/alert"
)

func alertedEvent() alert.Event {
	return alert.Event{
		StationID:   "46042",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Threshold:   4.0,
		LeadHours:   []int{1, 2, 3},
		Values:      []float64{3.0, 4.5, 3.5},
		Exceed:      []bool{false, true, false},
		Alerted:     true,
		MaxValue:    4.5,
		MaxLeadHour: 2,
	}
}

func testDispatcher(url string) *Dispatcher {
	cfg := DefaultConfig()
	cfg.WebhookURL = url
	cfg.MaxRetries = 2
	cfg.InitialInterval = time.Millisecond
	return NewDispatcher(cfg, zerolog.Nop())
}

func TestDispatchDelivers(t *testing.T) {
	var received alert.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	outcome, err := testDispatcher(server.URL).Dispatch(context.Background(), alertedEvent())
	require.NoError(t, err)

	assert.True(t, outcome.Delivered)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, "46042", received.StationID)
	assert.InDelta(t, 4.5, received.MaxValue, 1e-9)
}

func TestDispatchSkipsUnalerted(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	event := alertedEvent()
	event.Alerted = false

	outcome, err := testDispatcher(server.URL).Dispatch(context.Background(), event)
	require.NoError(t, err)

	assert.True(t, outcome.Skipped)
	assert.False(t, outcome.Delivered)
	assert.Equal(t, int64(0), calls.Load())
}

func TestDispatchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	outcome, err := testDispatcher(server.URL).Dispatch(context.Background(), alertedEvent())
	require.NoError(t, err)

	assert.True(t, outcome.Delivered)
	assert.Equal(t, 3, outcome.Attempts)
}

func TestDispatchFailsAfterRetryBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	outcome, err := testDispatcher(server.URL).Dispatch(context.Background(), alertedEvent())
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.False(t, outcome.Delivered)
	assert.Equal(t, 3, outcome.Attempts) // initial try + 2 retries
}

func TestDispatchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := testDispatcher(server.URL).Dispatch(context.Background(), alertedEvent())
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}
