package coordinator

import (
	"runtime"
	"time"

	"github.com/j-r-jones/sysjitter/internal/core"
)

const (
	// DefaultCalibration is the length of the sizing run.
	DefaultCalibration = time.Second
	// DefaultCapacity is the per-CPU capacity of the sizing run.
	DefaultCapacity = 1_000_000
	// MinRate is the lowest interruption rate buffers are sized for.
	MinRate = 1000
)

// Orchestrator measures in two phases: a short calibration run at a generous
// capacity, then the full run with buffers sized from what the calibration
// run saw.
type Orchestrator struct {
	Coordinator     *Coordinator
	Calibration     time.Duration // DefaultCalibration if zero
	InitialCapacity int           // DefaultCapacity if zero
}

// Calibration summarizes the sizing run. Its records are not kept.
type Calibration struct {
	Elapsed  time.Duration
	Peak     int // most interruptions on a single CPU
	Rate     int // Peak per second
	Capacity int // per-CPU capacity chosen for the full run
}

// Result is the outcome of both phases.
type Result struct {
	ThresholdNs uint64
	Calibration Calibration
	Full        *Run
}

// Run executes the calibration run and the full run of the given duration.
// On overflow in the full run, the partial result is returned along with
// the error.
func (o *Orchestrator) Run(thresholdNs uint64, duration time.Duration) (*Result, error) {
	c := o.Coordinator
	calibration := o.Calibration
	if calibration <= 0 {
		calibration = DefaultCalibration
	}
	capacity := o.InitialCapacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	calib, err := c.Run(Experiment{
		Name:        "calibration",
		ThresholdNs: thresholdNs,
		Duration:    calibration,
		Capacity:    capacity,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		ThresholdNs: thresholdNs,
		Calibration: Calibration{
			Elapsed:  calib.Elapsed,
			Peak:     calib.MaxCount(),
			Rate:     ratePerSecond(calib.MaxCount(), calibration),
			Capacity: CapacityFor(calib.Threads, calibration, duration),
		},
	}
	c.logger().Info().Int("peak", result.Calibration.Peak).Int("rate", result.Calibration.Rate).
		Int("capacity", result.Calibration.Capacity).Msg("sized buffers")
	c.Progress.Printf("sized buffers: %d records per cpu (peak %d/s)",
		result.Calibration.Capacity, result.Calibration.Rate)

	// give the calibration buffers back before allocating the big ones
	calib = nil
	runtime.GC()

	full, err := c.Run(Experiment{
		Name:        "full",
		ThresholdNs: thresholdNs,
		Duration:    duration,
		Capacity:    result.Calibration.Capacity,
	})
	result.Full = full
	return result, err
}

// CapacityFor sizes per-CPU buffers for a run of the given duration: twice
// the peak rate seen in the calibration results, but never less than
// MinRate per second, for every started second.
func CapacityFor(results []core.ThreadResult, calibration, duration time.Duration) int {
	peak := 0
	for i := range results {
		peak = max(peak, len(results[i].Interruptions))
	}
	perSec := max(ratePerSecond(peak, calibration), MinRate)
	secs := int((duration + time.Second - 1) / time.Second)
	return 2 * perSec * max(secs, 1)
}

func ratePerSecond(count int, over time.Duration) int {
	if over <= 0 {
		return count
	}
	return int(int64(count) * int64(time.Second) / int64(over))
}
