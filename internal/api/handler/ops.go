package handler

import (
	"net/http"
	"time"

	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/api/response"
	"github.com/taxicast/taxicast/internal/prediction"
	"github.com/taxicast/taxicast/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version    string
	buildTime  string
	prediction *prediction.Service
	providers  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. providers may be nil when no
// upstream clients are configured.
func NewOpsHandler(version, buildTime string, predictionService *prediction.Service, providers *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:    version,
		buildTime:  buildTime,
		prediction: predictionService,
		providers:  providers,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ops/ready. The service is ready once the model
// registry is loaded; the summary lets operators confirm which models are live.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.prediction == nil {
		response.JSON(w, r, http.StatusServiceUnavailable, models.Health{
			Status: models.HealthStatusFail,
			Time:   models.Timestamp(time.Now()),
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.Readiness{
		Status:   models.HealthStatusOK,
		Time:     models.Timestamp(time.Now()),
		Registry: h.prediction.Summary(),
	})
}

// SystemStatus handles GET /ops/status - upstream provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	var health []*resilience.ProviderHealth
	if h.providers != nil {
		health = h.providers.GetAllHealth()
	}
	response.JSON(w, r, http.StatusOK, models.NewSystemStatus(models.Timestamp(time.Now()), health))
}
