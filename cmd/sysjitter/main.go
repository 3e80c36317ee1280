// Command sysjitter measures OS jitter: how often, and for how long, threads
// spinning on otherwise idle CPUs are interrupted.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := disableAsyncPreemption(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot disable asynchronous preemption: %v\n", err)
	}

	err := NewCmdRoot().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
