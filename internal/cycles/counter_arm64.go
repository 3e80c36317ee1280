//go:build arm64

package cycles

// Read returns the virtual counter CNTVCT_EL0. Implemented in counter_arm64.s.
//
//go:noescape
func Read() uint64

// Name identifies the counter being read.
func Name() string { return "cntvct_el0" }
