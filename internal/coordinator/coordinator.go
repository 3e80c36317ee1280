// Package coordinator runs jitter experiments: it starts one pinned worker
// per CPU, releases them together, stops them after a wall-clock interval
// and hands back what each one recorded.
package coordinator

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/j-r-jones/sysjitter/internal/core"
	"github.com/j-r-jones/sysjitter/internal/cycles"
	"github.com/j-r-jones/sysjitter/internal/host"
	"github.com/j-r-jones/sysjitter/internal/progress"
)

const (
	// pollInterval is how often workers check for Go and the coordinator
	// checks for ready workers. Both sleep, so they leave the CPUs alone
	// while others are still calibrating.
	pollInterval = time.Millisecond

	// spareProcs is how many Ps are kept beyond one per worker, for the
	// coordinator, the timer and the progress line.
	spareProcs = 2
)

// ErrNoCPUs is returned for a run without CPUs.
var ErrNoCPUs = errors.New("no cpus to measure")

// Experiment describes one timed run.
type Experiment struct {
	Name        string
	ThresholdNs uint64
	Duration    time.Duration
	Capacity    int // interruption records per CPU
}

// BufferBytes is the memory all workers' buffers need together.
func (e Experiment) BufferBytes(workers int) uint64 {
	return uint64(e.Capacity) * uint64(core.RecordSize) * uint64(workers)
}

// Run is the outcome of one experiment.
type Run struct {
	Experiment Experiment
	Started    time.Time // nominal start, when Go was issued
	Elapsed    time.Duration
	Threads    []core.ThreadResult // in the order of Coordinator.CPUs
}

// MaxCount returns the highest number of interruptions any thread recorded.
func (r *Run) MaxCount() int {
	peak := 0
	for i := range r.Threads {
		peak = max(peak, len(r.Threads[i].Interruptions))
	}
	return peak
}

// Coordinator runs experiments on a fixed set of CPUs. Nil hooks are
// skipped, so tests can run it unprivileged on any machine.
type Coordinator struct {
	CPUs    []int
	Counter core.Counter // cycles.Hardware if nil
	Clock   core.Clock   // core.RealClock if nil

	Pin         func(cpu int) error
	CheckMemory func(bytes uint64) error
	Confine     func(cpu int) (restore func() error, err error)

	// Housekeeping is the CPU the coordinator and the runtime's helper
	// threads are confined to while an experiment runs.
	Housekeeping int

	Progress *progress.Progress
	Logger   *log.Logger
}

// NewCoordinator returns a coordinator that measures cpus with the hardware
// cycle counter and keeps everything else on housekeeping.
func NewCoordinator(cpus []int, housekeeping int) *Coordinator {
	return &Coordinator{
		CPUs:         cpus,
		Counter:      cycles.Hardware{},
		Clock:        core.RealClock{},
		Pin:          host.PinThread,
		CheckMemory:  host.CheckMemory,
		Confine:      host.ConfineProcess,
		Housekeeping: housekeeping,
		Logger:       &log.DefaultLogger,
	}
}

// Run executes one experiment and blocks until every worker has finished.
// Once the workers are released the run cannot be cancelled; it lasts
// exp.Duration. If any buffer overflowed, the run is returned together with
// an *OverflowError.
func (c *Coordinator) Run(exp Experiment) (*Run, error) {
	n := len(c.CPUs)
	if n == 0 {
		return nil, ErrNoCPUs
	}
	if exp.Capacity <= 0 {
		return nil, fmt.Errorf("%s run: capacity must be positive, got %d", exp.Name, exp.Capacity)
	}
	if c.CheckMemory != nil {
		if err := c.CheckMemory(exp.BufferBytes(n)); err != nil {
			return nil, fmt.Errorf("%s run: %w", exp.Name, err)
		}
	}
	logger := c.logger()
	clock := c.clock()

	if c.Confine != nil {
		// the coordinator stays on its thread, which stays on housekeeping
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		restore, err := c.Confine(c.Housekeeping)
		if err != nil {
			return nil, fmt.Errorf("%s run: %w", exp.Name, err)
		}
		defer func() {
			if err := restore(); err != nil {
				logger.Warn().Err(err).Msg("cannot restore affinity")
			}
		}()
	}

	if procs := runtime.GOMAXPROCS(0); procs < n+spareProcs {
		runtime.GOMAXPROCS(n + spareProcs)
		defer runtime.GOMAXPROCS(procs)
	}
	gcPercent := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(gcPercent)

	logger.Debug().Str("phase", exp.Name).Ints("cpus", c.CPUs).Int("capacity", exp.Capacity).
		Uint64("threshold_ns", exp.ThresholdNs).Dur("duration", exp.Duration).Msg("starting workers")

	state := core.NewRunState(n)
	workers := make([]*worker, n)
	var wg sync.WaitGroup
	for i, cpu := range c.CPUs {
		w := &worker{cpu: cpu}
		workers[i] = w
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(w, exp, state, clock)
		}()
	}

	waiting := rate.Sometimes{First: 1, Interval: time.Second}
	for state.Ready() < n {
		waiting.Do(func() {
			logger.Debug().Str("phase", exp.Name).Int("started", state.Started()).
				Int("ready", state.Ready()).Int("workers", n).Msg("waiting for workers")
		})
		time.Sleep(pollInterval)
	}

	if err := workerErrors(workers); err != nil {
		state.Abort()
		wg.Wait()
		return nil, fmt.Errorf("%s run: %w", exp.Name, err)
	}
	counter := counterName(c.counter())
	for _, w := range workers {
		logger.Debug().Int("cpu", w.cpu).Str("counter", counter).Str("frequency", w.freq.String()).
			Uint64("threshold_cycles", w.threshold).Msg("calibrated")
	}

	run := &Run{Experiment: exp, Started: clock.Now()}
	logger.Info().Str("phase", exp.Name).Int("cpus", n).Dur("duration", exp.Duration).Msg("sampling")
	c.Progress.Printf("%s run: %d cpus for %v", exp.Name, n, exp.Duration)
	state.Go()
	timer := time.AfterFunc(exp.Duration, state.Stop)
	c.Progress.Start(exp.Name, exp.Duration)
	wg.Wait()
	timer.Stop()
	c.Progress.Stop()
	run.Elapsed = clock.Since(run.Started)

	if err := workerErrors(workers); err != nil {
		return nil, fmt.Errorf("%s run: %w", exp.Name, err)
	}

	run.Threads = make([]core.ThreadResult, n)
	var overflow *OverflowError
	for i, w := range workers {
		run.Threads[i] = w.result(exp.Capacity)
		if w.overflowed {
			if overflow == nil {
				overflow = &OverflowError{Phase: exp.Name}
			}
			r := &run.Threads[i]
			overflow.Overflows = append(overflow.Overflows, Overflow{
				CPU:      w.cpu,
				Seconds:  r.CyclesToSeconds(r.Runtime()),
				Capacity: exp.Capacity,
			})
		}
	}
	logger.Info().Str("phase", exp.Name).Dur("elapsed", run.Elapsed).Int("max_interruptions", run.MaxCount()).Msg("finished")
	if overflow != nil {
		return run, overflow
	}
	return run, nil
}

func (c *Coordinator) logger() *log.Logger {
	if c.Logger == nil {
		return &log.DefaultLogger
	}
	return c.Logger
}

func (c *Coordinator) clock() core.Clock {
	if c.Clock == nil {
		return core.RealClock{}
	}
	return c.Clock
}

func (c *Coordinator) counter() core.Counter {
	if c.Counter == nil {
		return cycles.Hardware{}
	}
	return c.Counter
}

// counterName names the counter in logs.
func counterName(counter core.Counter) string {
	if _, ok := counter.(cycles.Hardware); ok {
		return cycles.Name()
	}
	return fmt.Sprintf("%T", counter)
}

func workerErrors(workers []*worker) error {
	var errs []error
	for _, w := range workers {
		if w.err != nil {
			errs = append(errs, w.err)
		}
	}
	return errors.Join(errs...)
}
