package coordinator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOverflow means a worker recorded more interruptions than its buffer
// holds. The results of that run are incomplete.
var ErrOverflow = errors.New("interruption buffer overflow")

// Overflow describes one overflowing worker.
type Overflow struct {
	CPU      int
	Seconds  float64 // sampling time until the buffer was full
	Capacity int
}

// OverflowError lists every worker of a run that overflowed.
type OverflowError struct {
	Phase     string
	Overflows []Overflow
}

func (e *OverflowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s run: %s", e.Phase, ErrOverflow)
	for i, o := range e.Overflows {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, " cpu %d after %.2fs (capacity %d)", o.CPU, o.Seconds, o.Capacity)
	}
	return b.String()
}

func (e *OverflowError) Unwrap() error {
	return ErrOverflow
}
