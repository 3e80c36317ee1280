// Package core defines the sampling engine of sysjitter: interruption
// records, the per-thread buffer, the shared run state and the hot loop.
package core

import (
	"math"
	"math/bits"
)

// Counter is a monotonically increasing cycle counter.
//
// Implementations used on the hot path must not allocate, block or touch
// shared mutable state; any such work would itself show up as jitter.
type Counter interface {
	Read() uint64
}

// Interruption is a single detected gap between two consecutive counter reads.
type Interruption struct {
	Timestamp uint64 // counter value at detection
	Gap       uint64 // cycles since the previous read
}

// ThreadResult is the read-only outcome of one worker thread after join.
type ThreadResult struct {
	CPU           int
	MHz           uint64         // calibrated cycles per microsecond
	Interruptions []Interruption // exactly the recorded records, in time order
	Total         uint64         // sum of all gaps, in cycles
	Start         uint64         // counter value when sampling began
	Stop          uint64         // counter value when sampling ended
	Capacity      int
	Overflowed    bool
}

// Runtime returns the number of cycles the thread spent sampling.
func (r *ThreadResult) Runtime() uint64 {
	return r.Stop - r.Start
}

// CyclesToNanos converts cycles into nanoseconds using the thread's
// calibrated frequency.
func (r *ThreadResult) CyclesToNanos(cycles uint64) uint64 {
	if r.MHz == 0 {
		return 0
	}
	return cycles * 1000 / r.MHz
}

// CyclesToMicros converts cycles into microseconds.
func (r *ThreadResult) CyclesToMicros(cycles uint64) uint64 {
	if r.MHz == 0 {
		return 0
	}
	return cycles / r.MHz
}

// CyclesToSeconds converts cycles into (fractional) seconds.
func (r *ThreadResult) CyclesToSeconds(cycles uint64) float64 {
	if r.MHz == 0 {
		return 0
	}
	return float64(cycles) / (float64(r.MHz) * 1e6)
}

// ThresholdCycles converts a threshold in nanoseconds into cycles of a core
// running at mhz cycles per microsecond. Thresholds too long to count in
// 64 bits saturate, so nothing is ever recorded.
func ThresholdCycles(thresholdNs, mhz uint64) uint64 {
	hi, lo := bits.Mul64(thresholdNs, mhz)
	if hi >= 1000 {
		return math.MaxUint64
	}
	cycles, _ := bits.Div64(hi, lo, 1000)
	return cycles
}
