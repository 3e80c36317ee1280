package collector

import (
	"time"
)

// Stats summarizes the interruptions of one CPU. Unless noted otherwise all
// values are in cycles of that CPU's counter.
type Stats struct {
	CPU    int
	MHz    uint64
	Count  int
	Min    uint64
	Max    uint64
	Mean   uint64
	Median uint64
	P90    uint64
	P99    uint64
	P999   uint64
	P9999  uint64
	P99999 uint64
	Total  uint64

	Runtime uint64
	Start   uint64
	Stop    uint64

	PerSecond float64
	Percent   float64 // share of the runtime spent interrupted
}

// Nanos converts cycles of this CPU into nanoseconds.
func (s Stats) Nanos(cycles uint64) uint64 {
	if s.MHz == 0 {
		return 0
	}
	return cycles * 1000 / s.MHz
}

// Duration converts cycles of this CPU into a duration.
func (s Stats) Duration(cycles uint64) time.Duration {
	return time.Duration(s.Nanos(cycles))
}

// Seconds converts cycles of this CPU into fractional seconds.
func (s Stats) Seconds(cycles uint64) float64 {
	if s.MHz == 0 {
		return 0
	}
	return float64(cycles) / (float64(s.MHz) * 1e6)
}

// ComputePercentile returns the element at index floor(n*num/den) of a
// slice sorted in ascending order. With few values the high percentiles all
// land on the maximum.
func ComputePercentile(sorted []uint64, num, den int) uint64 {
	n := len(sorted)
	if n == 0 || den <= 0 {
		return 0
	}
	index := n * num / den
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
