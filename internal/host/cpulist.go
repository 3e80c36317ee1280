package host

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxCPUs bounds CPU numbers to the size of the kernel affinity mask the
// process uses, the same as unix.CPU_SETSIZE on Linux.
const MaxCPUs = 1024

var (
	// ErrCPUUnavailable is returned for a CPU outside the process affinity.
	ErrCPUUnavailable = errors.New("cpu not available to this process")
	// ErrInvalidCPUList is returned for CPU lists that cannot be parsed.
	ErrInvalidCPUList = errors.New("invalid cpu list")
)

// ParseCPUList parses a kernel-style CPU list such as "0-3,8" into a sorted
// list of distinct CPU numbers.
func ParseCPUList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCPUList)
	}
	var cpus []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		lo, hi, isRange := strings.Cut(field, "-")
		first, err := parseCPU(lo)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = parseCPU(hi); err != nil {
				return nil, err
			}
			if last < first {
				return nil, fmt.Errorf("%w: descending range %q", ErrInvalidCPUList, field)
			}
		}
		for cpu := first; cpu <= last; cpu++ {
			cpus = append(cpus, cpu)
		}
	}
	slices.Sort(cpus)
	return slices.Compact(cpus), nil
}

func parseCPU(s string) (int, error) {
	cpu, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || cpu < 0 {
		return 0, fmt.Errorf("%w: bad cpu number %q", ErrInvalidCPUList, s)
	}
	if cpu >= MaxCPUs {
		return 0, fmt.Errorf("%w: cpu %d is beyond the last possible cpu %d", ErrInvalidCPUList, cpu, MaxCPUs-1)
	}
	return cpu, nil
}

// FormatCPUList renders CPUs in the kernel's list format, collapsing
// consecutive runs into ranges. The input must be sorted.
func FormatCPUList(cpus []int) string {
	var b strings.Builder
	for i := 0; i < len(cpus); {
		j := i
		for j+1 < len(cpus) && cpus[j+1] == cpus[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(cpus[i]))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(cpus[j]))
		}
		i = j + 1
	}
	return b.String()
}

// ValidateCPUs checks that every requested CPU is in allowed.
func ValidateCPUs(requested, allowed []int) error {
	for _, cpu := range requested {
		if !slices.Contains(allowed, cpu) {
			return fmt.Errorf("cpu %d: %w (allowed: %s)", cpu, ErrCPUUnavailable, FormatCPUList(allowed))
		}
	}
	return nil
}

// HousekeepingCPU picks the CPU for the coordinator and the runtime's helper
// threads: the first allowed CPU that is not measured, or the first allowed
// CPU if every one of them is measured.
func HousekeepingCPU(allowed, measured []int) int {
	for _, cpu := range allowed {
		if !slices.Contains(measured, cpu) {
			return cpu
		}
	}
	if len(allowed) > 0 {
		return allowed[0]
	}
	return 0
}
