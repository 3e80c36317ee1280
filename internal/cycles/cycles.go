// Package cycles reads the CPU's free-running cycle counter and calibrates
// its rate against the wall clock.
//
// The counter is read by a single architecture-specific primitive, [Read]:
// RDTSC on amd64 and CNTVCT_EL0 on arm64. Other architectures fall back to
// the runtime's monotonic clock, which then "ticks" once per nanosecond.
package cycles

import (
	"fmt"
	"time"
)

// Hardware is the architecture's cycle counter as a [core.Counter]. It is a
// zero-size value type so that generic sampling code calls [Read] directly.
//
// [core.Counter]: github.com/j-r-jones/sysjitter/internal/core.Counter
type Hardware struct{}

func (Hardware) Read() uint64 { return Read() }

// epoch anchors Monotonic readings so they start near zero.
var epoch = time.Now()

// Monotonic counts nanoseconds of the runtime's monotonic clock. It is safe
// for concurrent use and serves as a portable stand-in for the hardware
// counter, in particular in tests.
type Monotonic struct{}

func (Monotonic) Read() uint64 { return uint64(time.Since(epoch)) }

// Frequency is a counter rate in cycles per second.
type Frequency uint64

// MHz returns the rate in whole cycles per microsecond, never less than 1.
func (f Frequency) MHz() uint64 {
	if mhz := uint64(f) / 1_000_000; mhz > 0 {
		return mhz
	}
	return 1
}

func (f Frequency) String() string {
	return fmt.Sprintf("%.3fMHz", float64(f)/1e6)
}
