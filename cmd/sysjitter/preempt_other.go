//go:build !linux

package main

// disableAsyncPreemption is a no-op where the binary cannot re-execute itself
// through /proc.
func disableAsyncPreemption() error { return nil }
