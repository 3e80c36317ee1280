package core

import "sync"

// MockWriter is an io.Writer that collects output from several goroutines,
// for tests of components that print while an experiment runs.
type MockWriter struct {
	mu   sync.Mutex
	data []byte
}

func (w *MockWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = append(w.data, p...)
	return len(p), nil
}

// String returns everything written so far.
func (w *MockWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.data)
}

// StepCounter is a deterministic Counter that advances by Step on every read.
// It is not safe for concurrent use; give each worker its own.
type StepCounter struct {
	Value uint64
	Step  uint64
}

func (c *StepCounter) Read() uint64 {
	c.Value += c.Step
	return c.Value
}

// StoppingCounter advances by Step on every read and stops the run state
// after Reads reads, so sampling loops terminate without a timer.
type StoppingCounter struct {
	Value uint64
	Step  uint64
	Reads int
	State *RunState
	reads int
}

func (c *StoppingCounter) Read() uint64 {
	c.reads++
	if c.reads >= c.Reads {
		c.State.Stop()
	}
	c.Value += c.Step
	return c.Value
}
