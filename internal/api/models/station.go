// Package models provides request and response models for the swellwatch API.
package models

// Station represents a buoy station in API responses.
type Station struct {
	ID      string   `json:"id"`
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	Regions []string `json:"regions,omitempty"`
}

// StationsResponse lists the stations in a region. Total is the
// uncapped count; the stations list may be shorter.
type StationsResponse struct {
	Stations []Station `json:"stations"`
	Total    int       `json:"total"`
}

// OceanRegion represents an ocean region in API responses.
type OceanRegion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// OceanRegionsResponse lists all known ocean regions.
type OceanRegionsResponse struct {
	Regions []OceanRegion `json:"regions"`
}
