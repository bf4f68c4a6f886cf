// Package notify delivers alert events to external consumers: a webhook
// endpoint with bounded retry, and an optional Kafka stream.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/alert"
)

// ErrDeliveryFailed indicates the webhook could not be delivered within
// the retry budget. Callers treat it as non-fatal: a failed delivery
// never invalidates the forecast that produced the event.
var ErrDeliveryFailed = errors.New("alert delivery failed")

// Outcome reports what the dispatcher did with one event.
type Outcome struct {
	StationID string
	Delivered bool

	// Skipped is true when the event was not alerted and policy kept it
	// from being dispatched at all.
	Skipped  bool
	Attempts int
}

// Config holds the dispatcher configuration.
type Config struct {
	// WebhookURL receives alert events as JSON POSTs. Empty disables
	// webhook delivery.
	WebhookURL string

	// MaxRetries is the number of re-attempts after the first failure.
	MaxRetries int

	// AttemptTimeout caps each individual delivery attempt.
	AttemptTimeout time.Duration

	// InitialInterval is the first retry backoff delay.
	InitialInterval time.Duration
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		AttemptTimeout:  10 * time.Second,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Dispatcher posts alerted events to a webhook with exponential-backoff
// retry.
type Dispatcher struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewDispatcher creates a webhook dispatcher.
func NewDispatcher(cfg Config, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.AttemptTimeout},
		logger:     logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch delivers one event. Events with Alerted false are never sent.
// Exhausting the retry budget returns an error matching ErrDeliveryFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, event alert.Event) (Outcome, error) {
	if !event.Alerted {
		return Outcome{StationID: event.StationID, Skipped: true}, nil
	}
	if d.cfg.WebhookURL == "" {
		return Outcome{StationID: event.StationID, Skipped: true}, nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return Outcome{StationID: event.StationID}, fmt.Errorf("encoding alert event: %w", err)
	}

	attempts := 0
	operation := func() error {
		attempts++
		return d.post(ctx, body)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = d.cfg.InitialInterval
	policy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, uint64(d.cfg.MaxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		d.logger.Error().
			Str("station_id", event.StationID).
			Int("attempts", attempts).
			Err(err).
			Msg("alert delivery exhausted retries")
		return Outcome{StationID: event.StationID, Attempts: attempts},
			fmt.Errorf("station %s after %d attempts: %w: %w", event.StationID, attempts, ErrDeliveryFailed, err)
	}

	d.logger.Info().
		Str("station_id", event.StationID).
		Int("attempts", attempts).
		Float64("max_value_m", event.MaxValue).
		Msg("alert delivered")

	return Outcome{StationID: event.StationID, Delivered: true, Attempts: attempts}, nil
}

// post performs one delivery attempt.
func (d *Dispatcher) post(ctx context.Context, body []byte) error {
	attemptCtx := ctx
	if d.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, d.cfg.AttemptTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		// Client errors will not heal on retry.
		return backoff.Permanent(fmt.Errorf("webhook rejected event with %d", resp.StatusCode))
	}
	return nil
}
