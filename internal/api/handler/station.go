package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swellwatch/swellwatch/internal/api/models"
	"github.com/swellwatch/swellwatch/internal/api/response"
	"github.com/swellwatch/swellwatch/internal/station"
)

// DefaultStationCap bounds how many stations a single catalog query
// returns; the response's total still reflects the uncapped count.
const DefaultStationCap = 50

// StationHandler handles station catalog and region endpoints.
type StationHandler struct {
	catalog    *station.Catalog
	stationCap int
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(catalog *station.Catalog) *StationHandler {
	return &StationHandler{catalog: catalog, stationCap: DefaultStationCap}
}

// ListOceanRegions handles GET /api/ocean-regions.
func (h *StationHandler) ListOceanRegions(w http.ResponseWriter, r *http.Request) {
	regions := station.Regions()

	resp := models.OceanRegionsResponse{Regions: make([]models.OceanRegion, 0, len(regions))}
	for _, g := range regions {
		resp.Regions = append(resp.Regions, models.OceanRegion{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
		})
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// ListStations handles GET /api/stations?ocean=<region_id>.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	regionID := r.URL.Query().Get("ocean")
	if regionID == "" {
		response.BadRequest(w, r, "missing required query parameter", []models.FieldError{
			{Field: "ocean", Message: "ocean region id is required", Code: "required"},
		})
		return
	}

	stations, total, err := h.catalog.StationsInRegion(regionID, h.stationCap)
	if err != nil {
		if errors.Is(err, station.ErrUnknownRegion) {
			response.NotFound(w, r, "unknown ocean region: "+regionID)
			return
		}
		response.InternalError(w, r, "failed to list stations")
		return
	}

	resp := models.StationsResponse{
		Stations: make([]models.Station, 0, len(stations)),
		Total:    total,
	}
	for _, st := range stations {
		resp.Stations = append(resp.Stations, models.Station{ID: st.ID, Lat: st.Lat, Lon: st.Lon})
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// GetStation handles GET /api/station/{stationId}.
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	st, err := h.catalog.Station(id)
	if err != nil {
		response.NotFound(w, r, "unknown station: "+id)
		return
	}

	response.JSON(w, r, http.StatusOK, models.Station{
		ID:      st.ID,
		Lat:     st.Lat,
		Lon:     st.Lon,
		Regions: st.Regions,
	})
}
