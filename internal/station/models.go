// Package station provides the buoy station catalog and ocean region registry.
package station

import "errors"

// Catalog errors.
var (
	// ErrUnknownStation is returned when a station id is not in the catalog.
	ErrUnknownStation = errors.New("unknown station")

	// ErrUnknownRegion is returned when a region id does not match any registered region.
	ErrUnknownRegion = errors.New("unknown ocean region")

	// ErrInvalidCoordinates is returned when a station record carries an
	// out-of-range latitude or longitude.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Record is a single buoy station. Records are immutable once loaded into
// the catalog.
type Record struct {
	// ID is the station identifier, e.g. "46042".
	ID string `json:"id"`

	// Lat is the station latitude in degrees (-90..90).
	Lat float64 `json:"lat"`

	// Lon is the station longitude in degrees (-180..180).
	Lon float64 `json:"lon"`

	// Regions holds the ids of every ocean region whose bounding box
	// contains the station, sorted ascending. Computed at catalog load.
	Regions []string `json:"regions,omitempty"`
}

// Validate checks the record's coordinate ranges.
func (r Record) Validate() error {
	if r.Lat < -90 || r.Lat > 90 || r.Lon < -180 || r.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// InRegion reports whether the station belongs to the given region id.
func (r Record) InRegion(regionID string) bool {
	for _, id := range r.Regions {
		if id == regionID {
			return true
		}
	}
	return false
}
