package prediction

import (
	"math"
	"sort"
)

// topK returns the indices of the k largest probabilities in descending order.
// Equal probabilities keep ascending index order.
func topK(probs []float64, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

// degenerate reports whether probs carries no usable signal.
func degenerate(probs []float64) bool {
	for _, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return true
		}
	}
	for _, p := range probs {
		if p != 0 {
			return false
		}
	}
	return true
}

// percentages converts probs[ids] to one-decimal percentages. Rounding each
// value alone can push the total past 100.0, so any excess is taken off the
// last entry; with ids in descending order the ranking is unchanged.
func percentages(probs []float64, ids []int) []float64 {
	tenths := make([]int, len(ids))
	total := 0
	for i, id := range ids {
		tenths[i] = int(math.Round(probs[id] * 1000))
		total += tenths[i]
	}
	if excess := total - 1000; excess > 0 && len(tenths) > 0 {
		last := len(tenths) - 1
		tenths[last] = max(tenths[last]-excess, 0)
	}

	out := make([]float64, len(tenths))
	for i, t := range tenths {
		out[i] = float64(t) / 10
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
