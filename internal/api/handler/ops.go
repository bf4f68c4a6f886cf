// Package handler provides HTTP handlers for the swellwatch API.
package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/swellwatch/swellwatch/internal/api/models"
	"github.com/swellwatch/swellwatch/internal/api/response"
	"github.com/swellwatch/swellwatch/internal/provider/resilience"
	"github.com/swellwatch/swellwatch/internal/station"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version       string
	buildTime     string
	predictorName string
	catalog       *station.Catalog
	registry      *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime, predictorName string, catalog *station.Catalog, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:       version,
		buildTime:     buildTime,
		predictorName: predictorName,
		catalog:       catalog,
		registry:      registry,
	}
}

// HealthCheck handles GET /api/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
			"predictor": h.predictorName,
			"stations":  h.catalog.Len(),
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /api/ready - readiness check. The service
// is ready once the station catalog is loaded.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.catalog.Len() == 0 {
		response.ServiceUnavailable(w, r, "station catalog not loaded")
		return
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
	})
}

// SystemStatus handles GET /api/status - provider circuit and health
// snapshot.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
	}

	for _, ph := range h.registry.GetAllHealth() {
		providerStatus := models.HealthStatusOK
		switch ph.CircuitState {
		case gobreaker.StateOpen:
			providerStatus = models.HealthStatusDown
			status.Status = models.HealthStatusDegraded
		case gobreaker.StateHalfOpen:
			providerStatus = models.HealthStatusDegraded
			status.Status = models.HealthStatusDegraded
		}

		status.Providers = append(status.Providers, models.ProviderStatus{
			Provider:      ph.Name,
			Status:        providerStatus,
			LastSuccessAt: ph.LastSuccessAt,
			LastFailureAt: ph.LastFailureAt,
			FailureCount:  int(ph.Counts.TotalFailures),
		})
	}

	response.JSON(w, r, http.StatusOK, status)
}
