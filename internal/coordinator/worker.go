package coordinator

import (
	"fmt"
	"runtime"
	"time"

	"github.com/j-r-jones/sysjitter/internal/core"
	"github.com/j-r-jones/sysjitter/internal/cycles"
)

// worker is the state of one measuring thread. Only its goroutine touches it
// until the coordinator has seen the worker become ready or has joined it.
type worker struct {
	cpu        int
	freq       cycles.Frequency
	threshold  uint64
	buf        *core.Buffer
	total      uint64
	start      uint64
	stop       uint64
	overflowed bool
	err        error
}

func (c *Coordinator) work(w *worker, exp Experiment, state *core.RunState, clock core.Clock) {
	// Never unlocked: the thread exits with the goroutine, pin and all.
	runtime.LockOSThread()
	counter := c.counter()

	w.step(func() error {
		if c.Pin != nil {
			if err := c.Pin(w.cpu); err != nil {
				return err
			}
		}
		buf, err := core.NewBuffer(exp.Capacity)
		if err != nil {
			return fmt.Errorf("cpu %d: %w", w.cpu, err)
		}
		w.buf = buf
		return nil
	})
	state.MarkStarted()

	if w.err == nil {
		w.step(func() error {
			freq, err := cycles.NewCalibrator(counter, clock).Calibrate()
			if err != nil {
				return fmt.Errorf("cpu %d: calibrating: %w", w.cpu, err)
			}
			w.freq = freq
			w.threshold = core.ThresholdCycles(exp.ThresholdNs, freq.MHz())
			return nil
		})
	}
	state.MarkReady()

	for state.Command() == core.Wait {
		time.Sleep(pollInterval)
	}
	if state.Aborted() {
		return
	}

	state.Running.Await()
	w.step(func() error {
		w.start = counter.Read()
		w.total, w.overflowed = sample(counter, w.buf, w.threshold, state)
		w.stop = counter.Read()
		return nil
	})
	state.Finished.Await()
}

// sample instantiates the hot loop on the concrete hardware counter when
// possible, so that the counter read is not an interface call.
func sample(counter core.Counter, buf *core.Buffer, threshold uint64, state *core.RunState) (uint64, bool) {
	if _, ok := counter.(cycles.Hardware); ok {
		return core.Sample(cycles.Hardware{}, buf, threshold, state)
	}
	return core.Sample(counter, buf, threshold, state)
}

// step runs f and keeps its error, or its panic as an error, without
// breaking the start protocol the other workers depend on.
func (w *worker) step(f func() error) {
	defer w.recoverPanic()
	if err := f(); err != nil && w.err == nil {
		w.err = err
	}
}

// recoverPanic recovers from panics in worker steps and records them as the
// worker's error.
func (w *worker) recoverPanic() {
	if r := recover(); r != nil {
		w.err = fmt.Errorf("cpu %d: panic: %v", w.cpu, r)
	}
}

func (w *worker) result(capacity int) core.ThreadResult {
	r := core.ThreadResult{
		CPU:        w.cpu,
		MHz:        w.freq.MHz(),
		Total:      w.total,
		Start:      w.start,
		Stop:       w.stop,
		Capacity:   capacity,
		Overflowed: w.overflowed,
	}
	if w.buf != nil {
		r.Interruptions = w.buf.Records()
	}
	return r
}
