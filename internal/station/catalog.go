package station

import (
	"context"
	"fmt"
	"sort"
)

// Source loads station records from an external store or feed.
type Source interface {
	// Stations returns all known stations. Region membership on the
	// returned records is ignored; the catalog recomputes it.
	Stations(ctx context.Context) ([]Record, error)

	// Name returns the source name for logging.
	Name() string
}

// Catalog is the read-only station registry. It is safe for concurrent use
// after construction: nothing mutates it once NewCatalog returns.
type Catalog struct {
	byID    map[string]Record
	ordered []Record // sorted by id ascending
}

// NewCatalog builds a catalog from the given records. Coordinates are
// validated, region membership is computed from the region registry, and
// duplicate ids are rejected.
func NewCatalog(records []Record) (*Catalog, error) {
	byID := make(map[string]Record, len(records))
	ordered := make([]Record, 0, len(records))

	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("station with empty id: %w", ErrUnknownStation)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("station %s: %w", r.ID, err)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate station id %s", r.ID)
		}
		r.Regions = RegionsForPoint(r.Lat, r.Lon)
		byID[r.ID] = r
		ordered = append(ordered, r)
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	return &Catalog{byID: byID, ordered: ordered}, nil
}

// Load builds a catalog from a Source.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	records, err := src.Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stations from %s: %w", src.Name(), err)
	}
	return NewCatalog(records)
}

// Station returns the record for the given id, or ErrUnknownStation.
func (c *Catalog) Station(id string) (Record, error) {
	r, ok := c.byID[id]
	if !ok {
		return Record{}, fmt.Errorf("station %q: %w", id, ErrUnknownStation)
	}
	return r, nil
}

// StationsInRegion returns the stations belonging to the region, ordered by
// station id ascending. If max is positive the list is truncated to at most
// max entries; total reports the untruncated count.
func (c *Catalog) StationsInRegion(regionID string, max int) (stations []Record, total int, err error) {
	region, err := RegionByID(regionID)
	if err != nil {
		return nil, 0, err
	}

	for _, r := range c.ordered {
		if !r.InRegion(region.ID) {
			continue
		}
		total++
		if max <= 0 || len(stations) < max {
			stations = append(stations, r)
		}
	}
	return stations, total, nil
}

// All returns every station ordered by id ascending. The returned slice
// must not be modified.
func (c *Catalog) All() []Record {
	return c.ordered
}

// Len returns the number of stations in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
