package generator

import "github.com/stwalsh4118/lineup/internal/models"

// pickWeighted draws an index with probability weights[i] / sum(weights) using a
// single cumulative-weight draw. Weights must be positive and non-empty.
func pickWeighted(r *Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := r.Float64() * total
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	// rounding can leave x just past the last bucket
	return len(weights) - 1
}

// shuffleOrder returns a Fisher-Yates permutation of [0, n) drawn from a fresh
// stream of seed, so the same seed always yields the same order.
func shuffleOrder(seed int64, n int) models.IndexList {
	order := make(models.IndexList, n)
	for i := range order {
		order[i] = i
	}
	r := NewRand(seed, 0)
	for i := n - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}
