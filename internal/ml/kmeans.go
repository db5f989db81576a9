package ml

import (
	"fmt"
	"math"
)

// KMeansSpec is the on-disk form of a fitted k-means model over (lat, lon).
type KMeansSpec struct {
	NClusters      int         `json:"n_clusters"`
	ClusterCenters [][]float64 `json:"cluster_centers"`
}

// KMeans assigns points to the nearest fitted centre.
type KMeans struct {
	centers [][2]float64
}

// NewKMeans validates spec and returns a ready partition.
func NewKMeans(spec KMeansSpec) (*KMeans, error) {
	if spec.NClusters < 1 {
		return nil, fmt.Errorf("%w: n_clusters must be positive, got %d", ErrInvalidModel, spec.NClusters)
	}
	if len(spec.ClusterCenters) != spec.NClusters {
		return nil, fmt.Errorf("%w: n_clusters is %d but %d centres were given",
			ErrInvalidModel, spec.NClusters, len(spec.ClusterCenters))
	}
	centers := make([][2]float64, len(spec.ClusterCenters))
	for i, c := range spec.ClusterCenters {
		if len(c) != 2 {
			return nil, fmt.Errorf("%w: centre %d has %d dimensions, want 2", ErrInvalidModel, i, len(c))
		}
		for _, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: centre %d is not finite", ErrInvalidModel, i)
			}
		}
		centers[i] = [2]float64{c[0], c[1]}
	}
	return &KMeans{centers: centers}, nil
}

// NumClusters returns the number of clusters.
func (k *KMeans) NumClusters() int {
	return len(k.centers)
}

// Center returns the fitted centre of cluster id.
func (k *KMeans) Center(id int) [2]float64 {
	return k.centers[id]
}

// Predict returns the index of the nearest centre by squared Euclidean distance.
// Ties resolve to the lowest index.
func (k *KMeans) Predict(lat, lon float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range k.centers {
		dLat := lat - c[0]
		dLon := lon - c[1]
		d := dLat*dLat + dLon*dLon
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
