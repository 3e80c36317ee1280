package cycles

import (
	"errors"
	"fmt"

	"github.com/j-r-jones/sysjitter/internal/core"
)

const (
	// DefaultWindow is the number of cycles spun per frequency estimate.
	DefaultWindow = 1_000_000
	// DefaultMaxRounds bounds how many estimates are taken before giving up.
	DefaultMaxRounds = 1000
)

// ErrUnstableFrequency is returned when consecutive estimates never agree.
var ErrUnstableFrequency = errors.New("cycle counter frequency did not stabilize")

// Calibrator measures the effective rate of a cycle counter on the calling
// thread. The thread should already be pinned to the CPU of interest, since
// counters are not guaranteed to tick at the nominal CPU frequency, nor at
// the same rate on every CPU.
type Calibrator struct {
	Counter   core.Counter
	Clock     core.Clock
	Window    uint64 // cycles per estimate, DefaultWindow if zero
	MaxRounds int    // DefaultMaxRounds if zero
}

// NewCalibrator returns a calibrator for counter against clock with the
// default window and rounds. Nil arguments select the hardware counter and
// the system clock.
func NewCalibrator(counter core.Counter, clock core.Clock) *Calibrator {
	if counter == nil {
		counter = Hardware{}
	}
	if clock == nil {
		clock = core.RealClock{}
	}
	return &Calibrator{Counter: counter, Clock: clock}
}

// Calibrate repeats estimates until two consecutive ones differ by no more
// than 0.1% and returns the last one.
func (c *Calibrator) Calibrate() (Frequency, error) {
	maxRounds := c.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	prev := c.estimate()
	for round := 1; round < maxRounds; round++ {
		m := c.estimate()
		var d uint64
		if m > prev {
			d = m - prev
		} else {
			d = prev - m
		}
		prev = m
		if m > 0 && d <= m/1000 {
			return Frequency(m), nil
		}
	}
	return Frequency(prev), fmt.Errorf("after %d estimates, last %s: %w",
		maxRounds, Frequency(prev), ErrUnstableFrequency)
}

// estimate spins for one window of cycles and divides by the wall-clock time
// it took. It returns 0 if the clock did not advance.
func (c *Calibrator) estimate() uint64 {
	window := c.Window
	if window == 0 {
		window = DefaultWindow
	}

	s := c.Counter.Read()
	e := s
	start := c.Clock.Now()
	for e-s < window {
		e = c.Counter.Read()
	}
	elapsed := c.Clock.Since(start)
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(e-s) * 1e9 / float64(elapsed.Nanoseconds()))
}
