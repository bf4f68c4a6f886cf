// Package nomads provides a grid.Provider backed by the field extraction
// service, which decodes NOMADS model output (GRIB2) and serves channel
// fields over HTTP as JSON.
package nomads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/grid"
	"github.com/swellwatch/swellwatch/internal/provider/resilience"
)

// ProviderName identifies this provider in logs and health reporting.
const ProviderName = "nomads"

// Client fetches grid snapshots from the extraction service.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the extraction service root, e.g. http://extract:8090.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}

// NewClient creates an extraction-service client with retry and circuit
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

// snapshotResponse is the extraction service's wire format.
type snapshotResponse struct {
	Source   string        `json:"source"`
	Time     time.Time     `json:"time"`
	Channels []string      `json:"channels"`
	Lats     []float64     `json:"lats"`
	Lons     []float64     `json:"lons"`
	Data     [][][]float64 `json:"data"`
}

// Snapshot fetches the channel fields for one source at one time.
func (c *Client) Snapshot(ctx context.Context, source grid.Source, at time.Time, channels []string) (*grid.Snapshot, error) {
	q := url.Values{}
	q.Set("source", string(source))
	q.Set("time", at.UTC().Format(time.RFC3339))
	q.Set("channels", strings.Join(channels, ","))

	reqURL := fmt.Sprintf("%s/v1/fields?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating fields request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching fields: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug().
			Str("source", string(source)).
			Time("time", at).
			Msg("extraction service has no data for requested time")
		return nil, fmt.Errorf("%s at %s: %w", source, at.Format(time.RFC3339), grid.ErrDataUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, string(body))
	}

	var sr snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding fields response: %w", err)
	}

	snap := &grid.Snapshot{
		Source:   source,
		Time:     sr.Time,
		Channels: sr.Channels,
		Lats:     sr.Lats,
		Lons:     sr.Lons,
		Data:     sr.Data,
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fields response: %w", err)
	}

	return snap, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Resilience exposes the underlying resilient HTTP client for health
// registration.
func (c *Client) Resilience() *resilience.Client {
	return c.httpClient
}
