//go:build !linux

package host

import (
	"errors"
	"runtime"
)

func PinThread(cpu int) error { return errors.ErrUnsupported }

func AllowedCPUs() ([]int, error) {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus, nil
}

func ConfineProcess(cpu int) (restore func() error, err error) {
	return nil, errors.ErrUnsupported
}

func PhysicalMemory() (uint64, error) { return 0, errors.ErrUnsupported }
