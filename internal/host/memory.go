package host

import (
	"errors"
	"fmt"
)

// ErrInsufficientMemory is returned when buffers would not fit into RAM.
var ErrInsufficientMemory = errors.New("insufficient physical memory")

// CheckMemory fails if need bytes exceed the machine's physical memory.
// Unknown memory sizes pass.
func CheckMemory(need uint64) error {
	total, err := PhysicalMemory()
	if err != nil || total == 0 {
		return nil
	}
	if need > total {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientMemory, need, total)
	}
	return nil
}
