package station

import (
	"sort"
	"strings"
)

// Region is a named ocean region with an approximate bounding box.
// Boxes use (MinLon, MinLat, MaxLon, MaxLat); a region whose MinLon is
// greater than its MaxLon crosses the antimeridian.
type Region struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinLon      float64 `json:"-"`
	MinLat      float64 `json:"-"`
	MaxLon      float64 `json:"-"`
	MaxLat      float64 `json:"-"`
}

// Contains reports whether the point lies inside the region's bounding box.
// Longitude comparison wraps across the dateline for regions like the
// Bering Sea.
func (g Region) Contains(lat, lon float64) bool {
	if lat < g.MinLat || lat > g.MaxLat {
		return false
	}
	if g.MinLon > g.MaxLon { // crosses the antimeridian
		return lon >= g.MinLon || lon <= g.MaxLon
	}
	return lon >= g.MinLon && lon <= g.MaxLon
}

// oceanRegions is the registry of supported regions: major basins,
// regional seas, and US coastal sub-regions.
var oceanRegions = map[string]Region{
	"north_pacific": {
		ID: "north_pacific", Name: "North Pacific",
		MinLon: -180, MinLat: 0, MaxLon: -100, MaxLat: 60,
		Description: "North Pacific Ocean including US West Coast",
	},
	"south_pacific": {
		ID: "south_pacific", Name: "South Pacific",
		MinLon: 140, MinLat: -60, MaxLon: -70, MaxLat: 0,
		Description: "South Pacific Ocean",
	},
	"north_atlantic": {
		ID: "north_atlantic", Name: "North Atlantic",
		MinLon: -80, MinLat: 0, MaxLon: 0, MaxLat: 65,
		Description: "North Atlantic Ocean including US East Coast",
	},
	"south_atlantic": {
		ID: "south_atlantic", Name: "South Atlantic",
		MinLon: -60, MinLat: -60, MaxLon: 20, MaxLat: 0,
		Description: "South Atlantic Ocean",
	},
	"indian_ocean": {
		ID: "indian_ocean", Name: "Indian Ocean",
		MinLon: 20, MinLat: -60, MaxLon: 120, MaxLat: 30,
		Description: "Indian Ocean",
	},
	"arctic": {
		ID: "arctic", Name: "Arctic Ocean",
		MinLon: -180, MinLat: 65, MaxLon: 180, MaxLat: 90,
		Description: "Arctic Ocean",
	},
	"southern": {
		ID: "southern", Name: "Southern Ocean",
		MinLon: -180, MinLat: -90, MaxLon: 180, MaxLat: -60,
		Description: "Southern Ocean (Antarctic)",
	},
	"caribbean": {
		ID: "caribbean", Name: "Caribbean Sea",
		MinLon: -90, MinLat: 8, MaxLon: -60, MaxLat: 28,
		Description: "Caribbean Sea and Gulf of Mexico",
	},
	"mediterranean": {
		ID: "mediterranean", Name: "Mediterranean Sea",
		MinLon: -6, MinLat: 30, MaxLon: 37, MaxLat: 46,
		Description: "Mediterranean Sea",
	},
	"gulf_of_mexico": {
		ID: "gulf_of_mexico", Name: "Gulf of Mexico",
		MinLon: -98, MinLat: 18, MaxLon: -80, MaxLat: 31,
		Description: "Gulf of Mexico",
	},
	"bering_sea": {
		ID: "bering_sea", Name: "Bering Sea",
		MinLon: 160, MinLat: 51, MaxLon: -160, MaxLat: 66,
		Description: "Bering Sea between Alaska and Russia",
	},
	"arabian_sea": {
		ID: "arabian_sea", Name: "Arabian Sea",
		MinLon: 50, MinLat: 0, MaxLon: 80, MaxLat: 30,
		Description: "Arabian Sea (northwestern Indian Ocean)",
	},
	"south_china_sea": {
		ID: "south_china_sea", Name: "South China Sea",
		MinLon: 99, MinLat: -5, MaxLon: 121, MaxLat: 25,
		Description: "South China Sea",
	},
	"us_west_coast": {
		ID: "us_west_coast", Name: "US West Coast",
		MinLon: -130, MinLat: 30, MaxLon: -115, MaxLat: 50,
		Description: "US West Coast from California to Washington",
	},
	"us_east_coast": {
		ID: "us_east_coast", Name: "US East Coast",
		MinLon: -80, MinLat: 25, MaxLon: -65, MaxLat: 45,
		Description: "US East Coast from Florida to Maine",
	},
	"hawaii": {
		ID: "hawaii", Name: "Hawaii",
		MinLon: -162, MinLat: 18, MaxLon: -154, MaxLat: 23,
		Description: "Hawaiian Islands region",
	},
	"alaska": {
		ID: "alaska", Name: "Alaska",
		MinLon: -170, MinLat: 51, MaxLon: -130, MaxLat: 71,
		Description: "Alaska coastal waters",
	},
}

// NormalizeRegionID lowercases the id and folds spaces and hyphens to
// underscores, so "US West Coast" and "us-west-coast" both resolve.
func NormalizeRegionID(id string) string {
	n := strings.ToLower(strings.TrimSpace(id))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "-", "_")
	return n
}

// RegionByID looks up a region, returning ErrUnknownRegion if the id does
// not resolve after normalization.
func RegionByID(id string) (Region, error) {
	g, ok := oceanRegions[NormalizeRegionID(id)]
	if !ok {
		return Region{}, ErrUnknownRegion
	}
	return g, nil
}

// Regions returns all registered regions ordered by id.
func Regions() []Region {
	out := make([]Region, 0, len(oceanRegions))
	for _, g := range oceanRegions {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RegionsForPoint returns the ids of every region containing the point,
// sorted ascending.
func RegionsForPoint(lat, lon float64) []string {
	var ids []string
	for id, g := range oceanRegions {
		if g.Contains(lat, lon) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
