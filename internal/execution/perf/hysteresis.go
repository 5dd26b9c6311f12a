package perf

import (
	"errors"
	"fmt"
)

var ErrInvalidThresholds = errors.New("low threshold must be below high threshold")

// Hysteresis is a two-threshold trigger. A healthy trigger degrades only on a
// sample strictly below Low, a degraded trigger recovers only on a sample at
// or above High. Samples in between keep the current state.
type Hysteresis struct {
	low     float64
	high    float64
	healthy bool
}

func NewHysteresis(low, high float64) (*Hysteresis, error) {
	if low >= high {
		return nil, fmt.Errorf("%w: low=%v high=%v", ErrInvalidThresholds, low, high)
	}

	return &Hysteresis{low: low, high: high, healthy: true}, nil
}

// Update feeds a sample and reports whether the state flipped.
func (h *Hysteresis) Update(rate float64) bool {
	switch {
	case h.healthy && rate < h.low:
		h.healthy = false
		return true
	case !h.healthy && rate >= h.high:
		h.healthy = true
		return true
	}

	return false
}

func (h *Hysteresis) Healthy() bool {
	return h.healthy
}

func (h *Hysteresis) reset() {
	h.healthy = true
}
