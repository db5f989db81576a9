package handler

import (
	"net/http"
	"time"

	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/api/response"
	"github.com/taxicast/taxicast/internal/zone"
)

// MetadataHandler handles zone metadata endpoints.
type MetadataHandler struct {
	clusters models.ClustersResponse
}

// NewMetadataHandler creates a new MetadataHandler. Zones never change after
// startup so the listing is built once.
func NewMetadataHandler(zones []zone.Zone) *MetadataHandler {
	return &MetadataHandler{
		clusters: models.NewClustersResponse(zones),
	}
}

// ListClusters handles GET /api/clusters.
func (h *MetadataHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	response.Cache(w, response.Public, time.Hour)
	response.JSON(w, r, http.StatusOK, h.clusters)
}
