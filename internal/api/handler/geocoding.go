package handler

import (
	"net/http"
	"time"

	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/api/response"
	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/geocoding"
)

// GeocodingHandler handles place search and reverse geocoding.
type GeocodingHandler struct {
	service *geocoding.Service
}

// NewGeocodingHandler creates a new GeocodingHandler.
func NewGeocodingHandler(service *geocoding.Service) *GeocodingHandler {
	return &GeocodingHandler{service: service}
}

// Search handles GET /api/search?q=&limit=. The body is a bare array, empty
// for short queries or when the provider is unavailable.
func (h *GeocodingHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", geocoding.MaxResults)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	places := h.service.Search(r.Context(), r.URL.Query().Get("q"), limit)
	response.Cache(w, response.Public, 5*time.Minute)
	response.JSON(w, r, http.StatusOK, places)
}

// Reverse handles GET /api/reverse?lat=&lon=.
func (h *GeocodingHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}
	lon, err := floatParam(r, "lon")
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	name, err := h.service.Reverse(r.Context(), geo.Point{Lat: lat, Lon: lon})
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	response.JSON(w, r, http.StatusOK, models.ReverseResponse{DisplayName: name})
}
