// Package ndbc provides a station.Source backed by the NDBC
// active-stations XML feed.
package ndbc

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/swellwatch/swellwatch/internal/provider/resilience"
	"github.com/swellwatch/swellwatch/internal/station"
)

const (
	// ProviderName identifies this station source.
	ProviderName = "ndbc"

	// DefaultFeedURL is the NDBC active stations feed.
	DefaultFeedURL = "https://www.ndbc.noaa.gov/activestations.xml"
)

// ClientConfig holds configuration for the NDBC client.
type ClientConfig struct {
	// FeedURL is the active-stations feed URL (optional, defaults to NDBC).
	FeedURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches buoy station metadata from the NDBC feed.
type Client struct {
	feedURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new NDBC client.
func NewClient(cfg ClientConfig) *Client {
	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		feedURL:    feedURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the source name.
func (c *Client) Name() string {
	return ProviderName
}

// Stations fetches and parses the active-stations feed. Stations with
// missing or malformed coordinates are skipped rather than failing the
// whole load.
func (c *Client) Stations(ctx context.Context) ([]station.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var feed activeStationsFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	records := make([]station.Record, 0, len(feed.Stations))
	skipped := 0
	for _, st := range feed.Stations {
		lat, latErr := strconv.ParseFloat(st.Lat, 64)
		lon, lonErr := strconv.ParseFloat(st.Lon, 64)
		if st.ID == "" || latErr != nil || lonErr != nil {
			skipped++
			continue
		}
		records = append(records, station.Record{ID: st.ID, Lat: lat, Lon: lon})
	}

	if skipped > 0 {
		c.logger.Debug().
			Int("skipped", skipped).
			Int("loaded", len(records)).
			Msg("skipped stations with malformed coordinates")
	}

	return records, nil
}

// activeStationsFeed mirrors the NDBC activestations.xml schema.
type activeStationsFeed struct {
	XMLName  xml.Name      `xml:"stations"`
	Stations []feedStation `xml:"station"`
}

type feedStation struct {
	ID   string `xml:"id,attr"`
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

// Resilience exposes the underlying resilient HTTP client for health
// registration.
func (c *Client) Resilience() *resilience.Client {
	return c.httpClient
}
