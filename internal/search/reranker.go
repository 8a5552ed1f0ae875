package search

import "math"

// sigmoid normalizes a cross-encoder logit to [0, 1].
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
