package models

import (
	"github.com/taxicast/taxicast/internal/routing"
	"github.com/taxicast/taxicast/internal/zone"
)

// Cluster is a zone in the clusters listing.
type Cluster struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Center      LatLon `json:"center"`
}

// ClustersResponse lists every zone.
type ClustersResponse struct {
	Status        string    `json:"status"`
	Clusters      []Cluster `json:"clusters"`
	TotalClusters int       `json:"total_clusters"`
}

// NewClustersResponse converts zones to their wire form.
func NewClustersResponse(zones []zone.Zone) ClustersResponse {
	clusters := make([]Cluster, 0, len(zones))
	for _, z := range zones {
		clusters = append(clusters, Cluster{
			ID:          z.ID,
			Name:        z.Name,
			Type:        z.Type,
			Color:       z.Color,
			Description: z.Description,
			Center:      z.Center.Pair(),
		})
	}
	return ClustersResponse{
		Status:        StatusSuccess,
		Clusters:      clusters,
		TotalClusters: len(clusters),
	}
}

// ReverseResponse is the reverse geocoding result. DisplayName is omitted
// when no place is known.
type ReverseResponse struct {
	DisplayName string `json:"display_name,omitempty"`
}

// RouteResponse is a driving route between two points.
type RouteResponse struct {
	Status          string   `json:"status"`
	DistanceKm      float64  `json:"distance_km"`
	DurationMinutes int      `json:"duration_minutes"`
	Geometry        []LatLon `json:"geometry"`
	Provider        string   `json:"provider,omitempty"`
	Degraded        bool     `json:"degraded,omitempty"`
}

// NewRouteResponse converts a route to its wire form. Degraded routes carry
// an empty geometry and zero distance.
func NewRouteResponse(route *routing.Route) RouteResponse {
	geometry := make([]LatLon, 0, len(route.Geometry))
	for _, c := range route.Geometry {
		geometry = append(geometry, c.Pair())
	}
	return RouteResponse{
		Status:          StatusSuccess,
		DistanceKm:      route.DistanceKm(),
		DurationMinutes: route.DurationMinutes(),
		Geometry:        geometry,
		Provider:        route.Provider,
		Degraded:        route.Degraded,
	}
}
