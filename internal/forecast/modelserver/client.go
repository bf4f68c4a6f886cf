// Package modelserver provides a forecast.Predictor backed by an
// external inference service over HTTP.
package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/patch"
	"github.com/swellwatch/swellwatch/internal/provider/resilience"
)

// ProviderName identifies this predictor in logs and health reporting.
const ProviderName = "modelserver"

// Client posts patch samples to the inference service.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the inference service root, e.g. http://model:8501.
	BaseURL string

	// Timeout is the per-request timeout. Inference is slower than the
	// data-plane calls, so the default is generous.
	Timeout time.Duration

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    15 * time.Second,
		MaxRetries: 2,
	}
}

// NewClient creates an inference-service client with retry and circuit
// breaker protection.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	clientCfg := resilience.DefaultClientConfig(ProviderName)
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		clientCfg.MaxRetries = uint64(cfg.MaxRetries)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: resilience.NewClient(clientCfg),
		logger:     logger.With().Str("provider", ProviderName).Logger(),
	}
}

// tensorPayload is one tensor on the wire: its shape plus the values in
// [steps][channels][rows][cols] order.
type tensorPayload struct {
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

type predictRequest struct {
	StationID     string        `json:"station_id"`
	ReferenceTime time.Time     `json:"reference_time"`
	Horizon       int           `json:"horizon"`
	Wave          tensorPayload `json:"wave"`
	Atmosphere    tensorPayload `json:"atmosphere"`
}

type predictResponse struct {
	Values []float64 `json:"values"`
}

// Predict posts the sample and returns the model's horizon values.
func (c *Client) Predict(ctx context.Context, sample *patch.Sample, horizon int) ([]float64, error) {
	body, err := json.Marshal(predictRequest{
		StationID:     sample.StationID,
		ReferenceTime: sample.ReferenceTime,
		Horizon:       horizon,
		Wave:          encodeTensor(sample.Wave),
		Atmosphere:    encodeTensor(sample.Atmosphere),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, string(msg))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding predict response: %w", err)
	}

	return pr.Values, nil
}

// Name returns the predictor name.
func (c *Client) Name() string { return ProviderName }

// Resilience exposes the underlying resilient HTTP client for health
// registration.
func (c *Client) Resilience() *resilience.Client {
	return c.httpClient
}

func encodeTensor(t *patch.Tensor) tensorPayload {
	steps, channels, rows, cols := t.Shape()
	return tensorPayload{
		Shape:  []int{steps, channels, rows, cols},
		Values: t.Values(),
	}
}
