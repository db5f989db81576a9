package handler

import (
	"net/http"
	"time"

	"github.com/taxicast/taxicast/internal/api/models"
	"github.com/taxicast/taxicast/internal/api/response"
	"github.com/taxicast/taxicast/internal/geo"
	"github.com/taxicast/taxicast/internal/routing"
)

// RouteHandler handles driving route lookups.
type RouteHandler struct {
	service *routing.Service
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service *routing.Service) *RouteHandler {
	return &RouteHandler{service: service}
}

// GetRoute handles GET /api/route?pickup_lat=&pickup_lon=&dropoff_lat=&dropoff_lon=.
// Provider failures yield a success envelope with an empty geometry.
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	var coords [4]float64
	for i, name := range []string{"pickup_lat", "pickup_lon", "dropoff_lat", "dropoff_lon"} {
		v, err := floatParam(r, name)
		if err != nil {
			response.BadRequest(w, r, err.Error())
			return
		}
		coords[i] = v
	}

	route, err := h.service.GetRoute(r.Context(),
		geo.Point{Lat: coords[0], Lon: coords[1]},
		geo.Point{Lat: coords[2], Lon: coords[3]},
	)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	if !route.Degraded {
		response.Cache(w, response.Private, time.Minute)
	}
	response.JSON(w, r, http.StatusOK, models.NewRouteResponse(route))
}
