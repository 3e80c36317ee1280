//go:build amd64

package cycles

// Read returns the time stamp counter. Implemented in counter_amd64.s.
//
//go:noescape
func Read() uint64

// Name identifies the counter being read.
func Name() string { return "rdtsc" }
