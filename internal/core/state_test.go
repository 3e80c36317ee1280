package core

import (
	"sync"
	"testing"
	"time"
)

func TestRunState_CommandTransitions(t *testing.T) {
	s := NewRunState(2)

	if s.Command() != Wait {
		t.Errorf("expected new state to wait, got %v", s.Command())
	}
	s.Go()
	if s.Command() != Go {
		t.Errorf("expected go, got %v", s.Command())
	}
	s.Stop()
	if s.Command() != Stop {
		t.Errorf("expected stop, got %v", s.Command())
	}
}

func TestRunState_Counters(t *testing.T) {
	s := NewRunState(3)
	for i := 0; i < 3; i++ {
		s.MarkStarted()
	}
	s.MarkReady()

	if s.Workers() != 3 {
		t.Errorf("expected 3 workers, got %d", s.Workers())
	}
	if s.Started() != 3 {
		t.Errorf("expected 3 started, got %d", s.Started())
	}
	if s.Ready() != 1 {
		t.Errorf("expected 1 ready, got %d", s.Ready())
	}
}

func TestCommand_String(t *testing.T) {
	tests := map[Command]string{Wait: "wait", Go: "go", Stop: "stop", Command(9): "unknown"}
	for cmd, want := range tests {
		if cmd.String() != want {
			t.Errorf("expected %q, got %q", want, cmd.String())
		}
	}
}

func TestBarrier_ReleasesOnlyWhenAllArrive(t *testing.T) {
	const parties = 4
	b := NewBarrier(parties)

	var wg sync.WaitGroup
	released := make(chan struct{}, parties)
	for i := 0; i < parties-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Await()
			released <- struct{}{}
		}()
	}

	deadline := time.Now().Add(time.Second)
	for b.Arrived() < parties-1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	select {
	case <-released:
		t.Fatal("barrier released before the last party arrived")
	case <-time.After(20 * time.Millisecond):
	}

	b.Await()
	wg.Wait()
	if len(released) != parties-1 {
		t.Errorf("expected %d released parties, got %d", parties-1, len(released))
	}
	if b.Arrived() != parties {
		t.Errorf("expected %d arrivals, got %d", parties, b.Arrived())
	}
}

func TestRunState_Abort(t *testing.T) {
	s := NewRunState(1)
	if s.Aborted() {
		t.Error("expected new state not to be aborted")
	}
	s.Abort()
	if !s.Aborted() {
		t.Error("expected aborted")
	}
	if s.Command() != Stop {
		t.Errorf("expected stop, got %v", s.Command())
	}

	s = NewRunState(1)
	s.Go()
	s.Stop()
	if s.Aborted() {
		t.Error("expected a stopped run not to count as aborted")
	}
}
