/*
Package host talks to the Linux kernel on behalf of the jitter measurement:
it pins threads to CPUs, discovers which CPUs the process may use, confines
the Go runtime's helper threads to a single housekeeping CPU and checks that
interruption buffers fit into physical memory.

# The Term "CPU"

As in the kernel's ABI and in tools such as lscpu(1), a "CPU" is anything
with a logical CPU number that executes code independently, be it a core or
a hyperthread. CPU lists use the kernel's list format, for instance
"0-3,8,10-11".

On platforms other than Linux, pinning and confinement are not available and
report [errors.ErrUnsupported]; CPU discovery then falls back to
[runtime.NumCPU].
*/
package host
