package models

import (
	"github.com/taxicast/taxicast/internal/prediction"
)

// TimeInfo is the temporal context of a duration prediction.
type TimeInfo struct {
	Hour       int    `json:"hour"`
	Day        string `json:"day"`
	Month      int    `json:"month"`
	IsRushHour bool   `json:"is_rush_hour"`
	IsWeekend  bool   `json:"is_weekend"`
}

// DurationResponse is the body of a successful duration prediction.
type DurationResponse struct {
	Status              string   `json:"status"`
	DurationMinutes     int      `json:"duration_minutes"`
	DistanceKm          float64  `json:"distance_km"`
	Bearing             float64  `json:"bearing"`
	PickupCluster       int      `json:"pickup_cluster"`
	PickupClusterName   string   `json:"pickup_cluster_name"`
	PickupClusterColor  string   `json:"pickup_cluster_color"`
	DropoffCluster      int      `json:"dropoff_cluster"`
	DropoffClusterName  string   `json:"dropoff_cluster_name"`
	DropoffClusterColor string   `json:"dropoff_cluster_color"`
	PickupCoords        LatLon   `json:"pickup_coords"`
	DropoffCoords       LatLon   `json:"dropoff_coords"`
	TimeInfo            TimeInfo `json:"time_info"`
}

// NewDurationResponse converts a prediction result to its wire form.
func NewDurationResponse(res *prediction.DurationResult) DurationResponse {
	return DurationResponse{
		Status:              StatusSuccess,
		DurationMinutes:     res.Minutes,
		DistanceKm:          res.DistanceKm,
		Bearing:             res.Bearing,
		PickupCluster:       res.Pickup.ID,
		PickupClusterName:   res.Pickup.Name,
		PickupClusterColor:  res.Pickup.Color,
		DropoffCluster:      res.Dropoff.ID,
		DropoffClusterName:  res.Dropoff.Name,
		DropoffClusterColor: res.Dropoff.Color,
		PickupCoords:        res.PickupAt.Pair(),
		DropoffCoords:       res.DropoffAt.Pair(),
		TimeInfo: TimeInfo{
			Hour:       res.Time.Hour,
			Day:        res.Time.Weekday,
			Month:      res.Time.Month,
			IsRushHour: res.Time.IsRushHour,
			IsWeekend:  res.Time.IsWeekend,
		},
	}
}

// DestinationPrediction is one ranked destination zone.
type DestinationPrediction struct {
	Cluster     int     `json:"cluster"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Color       string  `json:"color"`
	Probability float64 `json:"probability"`
	Confidence  string  `json:"confidence"`
	Center      LatLon  `json:"center"`
	Description string  `json:"description"`
}

// DestinationResponse is the body of a successful destination prediction.
type DestinationResponse struct {
	Status             string                  `json:"status"`
	PickupCluster      int                     `json:"pickup_cluster"`
	PickupClusterName  string                  `json:"pickup_cluster_name"`
	PickupClusterColor string                  `json:"pickup_cluster_color"`
	PickupCoords       LatLon                  `json:"pickup_coords"`
	Hour               int                     `json:"hour"`
	Month              int                     `json:"month"`
	DayOfWeek          string                  `json:"day_of_week"`
	IsWeekend          bool                    `json:"is_weekend"`
	IsRushHour         bool                    `json:"is_rush_hour"`
	TopPredictions     []DestinationPrediction `json:"top_predictions"`
	TotalClusters      int                     `json:"total_clusters"`
	Fallback           bool                    `json:"fallback,omitempty"`
}

// NewDestinationResponse converts a prediction result to its wire form.
func NewDestinationResponse(res *prediction.DestinationResult) DestinationResponse {
	preds := make([]DestinationPrediction, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		preds = append(preds, DestinationPrediction{
			Cluster:     c.Zone.ID,
			Name:        c.Zone.Name,
			Type:        c.Zone.Type,
			Color:       c.Zone.Color,
			Probability: c.Probability,
			Confidence:  c.Confidence,
			Center:      c.Zone.Center.Pair(),
			Description: c.Zone.Description,
		})
	}

	return DestinationResponse{
		Status:             StatusSuccess,
		PickupCluster:      res.Pickup.ID,
		PickupClusterName:  res.Pickup.Name,
		PickupClusterColor: res.Pickup.Color,
		PickupCoords:       res.PickupAt.Pair(),
		Hour:               res.Time.Hour,
		Month:              res.Time.Month,
		DayOfWeek:          res.Time.Weekday,
		IsWeekend:          res.Time.IsWeekend,
		IsRushHour:         res.Time.IsRushHour,
		TopPredictions:     preds,
		TotalClusters:      res.TotalZones,
		Fallback:           res.Fallback,
	}
}
