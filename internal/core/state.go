package core

import (
	"sync/atomic"
)

// Command is the experiment-wide instruction all workers poll.
type Command int32

const (
	Wait Command = iota // workers are being set up and calibrated
	Go                  // workers sample
	Stop                // sampling ends, or the run was aborted before Go
)

func (c Command) String() string {
	switch c {
	case Wait:
		return "wait"
	case Go:
		return "go"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Barrier is a busy-wait rendezvous for a fixed number of parties. It never
// blocks in the kernel and never allocates, so it can be used by threads whose
// cores are being measured.
type Barrier struct {
	parties int32
	arrived atomic.Int32
}

// NewBarrier returns a barrier for the given number of parties.
func NewBarrier(parties int) *Barrier {
	return &Barrier{parties: int32(parties)}
}

// Await registers the caller and spins until all parties have arrived.
func (b *Barrier) Await() {
	b.arrived.Add(1)
	for b.arrived.Load() < b.parties {
	}
}

// Arrived returns how many parties have reached the barrier so far.
func (b *Barrier) Arrived() int {
	return int(b.arrived.Load())
}

// RunState is the only mutable state shared between the workers and the
// coordinator of one experiment. It is created per run and dropped afterwards.
type RunState struct {
	cmd      atomic.Int32
	aborted  atomic.Bool
	workers  int
	started  atomic.Int32
	ready    atomic.Int32
	Running  *Barrier // all workers observed Go
	Finished *Barrier // all workers stopped sampling
}

// NewRunState returns the state for an experiment with the given number of
// workers, with the command set to Wait.
func NewRunState(workers int) *RunState {
	return &RunState{
		workers:  workers,
		Running:  NewBarrier(workers),
		Finished: NewBarrier(workers),
	}
}

// Workers returns the number of participating workers.
func (s *RunState) Workers() int { return s.workers }

// Command returns the current command.
func (s *RunState) Command() Command { return Command(s.cmd.Load()) }

// Go releases the workers.
func (s *RunState) Go() { s.cmd.Store(int32(Go)) }

// Stop ends sampling, or aborts a run that has not been released yet.
func (s *RunState) Stop() { s.cmd.Store(int32(Stop)) }

// Abort stops a run that has not been released, telling workers to return
// without sampling or entering the barriers.
func (s *RunState) Abort() {
	s.aborted.Store(true)
	s.cmd.Store(int32(Stop))
}

// Aborted reports whether the run was aborted before Go.
func (s *RunState) Aborted() bool { return s.aborted.Load() }

// MarkStarted records that a worker is pinned and has its buffer.
func (s *RunState) MarkStarted() { s.started.Add(1) }

// MarkReady records that a worker has calibrated and waits for Go.
func (s *RunState) MarkReady() { s.ready.Add(1) }

// Started returns the number of workers that are pinned and allocated.
func (s *RunState) Started() int { return int(s.started.Load()) }

// Ready returns the number of workers waiting for Go.
func (s *RunState) Ready() int { return int(s.ready.Load()) }
