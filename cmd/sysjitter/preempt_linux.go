package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// disableAsyncPreemption re-executes the binary with asynchronous preemption
// turned off, so the runtime does not signal spinning workers every 10ms.
// It only returns if nothing had to change or the exec failed.
func disableAsyncPreemption() error {
	env, changed := preemptionEnv(os.Environ())
	if !changed {
		return nil
	}
	return unix.Exec("/proc/self/exe", os.Args, env)
}
