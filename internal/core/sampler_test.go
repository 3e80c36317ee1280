package core

import (
	"math"
	"testing"
)

func TestSample_ThresholdZeroOverflowsAtCapacity(t *testing.T) {
	state := NewRunState(1)
	state.Go()
	buf, _ := NewBuffer(10)

	total, overflowed := Sample(&StepCounter{Step: 1}, buf, 0, state)

	if !overflowed {
		t.Error("expected overflow")
	}
	if buf.Len() != 10 {
		t.Errorf("expected exactly 10 records, got %d", buf.Len())
	}
	if total != 10 {
		t.Errorf("expected total of 10 cycles, got %d", total)
	}
}

func TestSample_NothingAboveThreshold(t *testing.T) {
	state := NewRunState(1)
	state.Go()
	buf, _ := NewBuffer(10)
	c := &StoppingCounter{Step: 5, Reads: 1000, State: state}

	total, overflowed := Sample(c, buf, 6, state)

	if overflowed {
		t.Error("expected no overflow")
	}
	if buf.Len() != 0 || total != 0 {
		t.Errorf("expected no interruptions, got %d (total %d)", buf.Len(), total)
	}
}

// gapCounter replays a fixed sequence of increments and stops the run when
// the sequence is exhausted.
type gapCounter struct {
	value uint64
	gaps  []uint64
	state *RunState
}

func (c *gapCounter) Read() uint64 {
	if len(c.gaps) == 0 {
		c.state.Stop()
		return c.value + 1
	}
	c.value += c.gaps[0]
	c.gaps = c.gaps[1:]
	if len(c.gaps) == 0 {
		c.state.Stop()
	}
	return c.value
}

func TestSample_RecordsOnlyGapsAtOrAboveThreshold(t *testing.T) {
	state := NewRunState(1)
	state.Go()
	buf, _ := NewBuffer(100)
	// first increment seeds prev
	c := &gapCounter{gaps: []uint64{1, 3, 50, 2, 49, 100, 1, 51}, state: state}

	total, overflowed := Sample(c, buf, 50, state)

	if overflowed {
		t.Error("expected no overflow")
	}
	recs := buf.Records()
	if len(recs) != 3 {
		t.Fatalf("expected 3 interruptions, got %d: %+v", len(recs), recs)
	}
	var sum uint64
	for _, r := range recs {
		if r.Gap < 50 {
			t.Errorf("recorded sub-threshold gap %d", r.Gap)
		}
		sum += r.Gap
	}
	if sum != total || total != 201 {
		t.Errorf("expected total 201 matching sum %d, got %d", sum, total)
	}
	if recs[0].Timestamp != 1+3+50 {
		t.Errorf("expected first timestamp 54, got %d", recs[0].Timestamp)
	}
}

func TestSample_DoesNotRunBeforeGo(t *testing.T) {
	state := NewRunState(1)
	buf, _ := NewBuffer(10)

	Sample(&StepCounter{Step: 1}, buf, 0, state)
	if buf.Len() != 0 {
		t.Errorf("expected no records while waiting, got %d", buf.Len())
	}

	state.Stop()
	Sample(&StepCounter{Step: 1}, buf, 0, state)
	if buf.Len() != 0 {
		t.Errorf("expected no records after stop, got %d", buf.Len())
	}
}

func TestSample_FullBufferReportsOverflowImmediately(t *testing.T) {
	state := NewRunState(1)
	state.Go()
	buf, _ := NewBuffer(1)
	buf.Append(1, 1)

	if _, overflowed := Sample(&StepCounter{Step: 1}, buf, 0, state); !overflowed {
		t.Error("expected overflow for an already full buffer")
	}
}

func BenchmarkSample(b *testing.B) {
	state := NewRunState(1)
	state.Go()
	buf, _ := NewBuffer(1)
	c := &StoppingCounter{Step: 1, Reads: b.N, State: state}
	b.ResetTimer()
	Sample(c, buf, 1<<62, state)
}

func TestThresholdCycles(t *testing.T) {
	if got := ThresholdCycles(1000, 2500); got != 2500 {
		t.Errorf("expected 2500 cycles for 1us at 2500MHz, got %d", got)
	}
	if got := ThresholdCycles(0, 3000); got != 0 {
		t.Errorf("expected 0 cycles, got %d", got)
	}
}

func TestThresholdCycles_LargeThreshold(t *testing.T) {
	if got := ThresholdCycles(1e16, 3000); got != 3e16 {
		t.Errorf("expected 3e16 cycles, got %d", got)
	}
	if got := ThresholdCycles(math.MaxUint64, 3000); got != math.MaxUint64 {
		t.Errorf("expected saturation at %d, got %d", uint64(math.MaxUint64), got)
	}
}

func TestThreadResult_Conversions(t *testing.T) {
	r := ThreadResult{MHz: 2000, Start: 1000, Stop: 2_000_001_000}

	if r.Runtime() != 2_000_000_000 {
		t.Errorf("expected runtime 2e9 cycles, got %d", r.Runtime())
	}
	if r.CyclesToNanos(2000) != 1000 {
		t.Errorf("expected 1000ns, got %d", r.CyclesToNanos(2000))
	}
	if r.CyclesToMicros(2000) != 1 {
		t.Errorf("expected 1us, got %d", r.CyclesToMicros(2000))
	}
	if r.CyclesToSeconds(r.Runtime()) != 1.0 {
		t.Errorf("expected 1s, got %f", r.CyclesToSeconds(r.Runtime()))
	}

	var zero ThreadResult
	if zero.CyclesToNanos(100) != 0 {
		t.Error("expected 0 without a calibrated frequency")
	}
}
