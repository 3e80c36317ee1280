//go:build !amd64 && !arm64

package cycles

// Read returns nanoseconds of the monotonic clock on architectures without
// an assembly counter.
func Read() uint64 { return Monotonic{}.Read() }

// Name identifies the counter being read.
func Name() string { return "monotonic" }
