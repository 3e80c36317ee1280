package collector

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/j-r-jones/sysjitter/internal/core"
)

// resultWithGaps builds a thread result at 1000 MHz, so cycles read as
// nanoseconds, sampling for runtime cycles.
func resultWithGaps(runtime uint64, gaps ...uint64) core.ThreadResult {
	r := core.ThreadResult{CPU: 1, MHz: 1000, Start: 1000, Stop: 1000 + runtime}
	ts := r.Start
	for _, gap := range gaps {
		ts += gap
		r.Interruptions = append(r.Interruptions, core.Interruption{Timestamp: ts, Gap: gap})
		r.Total += gap
	}
	return r
}

func TestCompute_EmptyBuffer(t *testing.T) {
	s := Compute(resultWithGaps(1_000_000))

	if s.Count != 0 {
		t.Errorf("expected 0 interruptions, got %d", s.Count)
	}
	if s.Min != 0 || s.Max != 0 || s.Mean != 0 || s.Median != 0 || s.P99999 != 0 || s.Total != 0 {
		t.Errorf("expected all-zero statistics, got %+v", s)
	}
	if s.Percent != 0 || s.PerSecond != 0 {
		t.Errorf("expected zero rates, got %v%% and %v/s", s.Percent, s.PerSecond)
	}
	if s.Runtime != 1_000_000 {
		t.Errorf("expected runtime 1000000, got %d", s.Runtime)
	}
}

func TestCompute_GapsOneToHundred(t *testing.T) {
	gaps := make([]uint64, 100)
	for i := range gaps {
		gaps[i] = uint64(i + 1)
	}
	s := Compute(resultWithGaps(1_000_000, gaps...))

	checks := []struct {
		name     string
		got      uint64
		expected uint64
	}{
		{"min", s.Min, 1},
		{"median", s.Median, 51},
		{"p90", s.P90, 91},
		{"p99", s.P99, 100},
		{"p999", s.P999, 100},
		{"max", s.Max, 100},
		{"total", s.Total, 5050},
		{"mean", s.Mean, 50},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s: expected %d, got %d", c.name, c.expected, c.got)
		}
	}
}

func TestCompute_SingleInterruption(t *testing.T) {
	s := Compute(resultWithGaps(1_000_000, 42))

	for _, v := range []uint64{s.Min, s.Median, s.P90, s.P99, s.P999, s.P9999, s.P99999, s.Max, s.Mean} {
		if v != 42 {
			t.Errorf("expected every statistic to be 42, got %+v", s)
			break
		}
	}
}

func TestCompute_Rates(t *testing.T) {
	// one second at 1000 MHz with a quarter of it interrupted
	r := resultWithGaps(1_000_000_000, 125_000_000, 125_000_000)
	s := Compute(r)

	if s.Percent != 25 {
		t.Errorf("expected 25%%, got %v", s.Percent)
	}
	if s.PerSecond != 2 {
		t.Errorf("expected 2/s, got %v", s.PerSecond)
	}
}

func TestCompute_ZeroRuntime(t *testing.T) {
	r := resultWithGaps(0, 10, 20)
	s := Compute(r)

	if s.Percent != 0 || s.PerSecond != 0 {
		t.Errorf("expected zero rates without runtime, got %v%% and %v/s", s.Percent, s.PerSecond)
	}
}

func TestCompute_PercentilesAreOrdered(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	gaps := make([]uint64, 12345)
	for i := range gaps {
		gaps[i] = 1000 + rng.Uint64N(1_000_000)
	}
	s := Compute(resultWithGaps(1<<40, gaps...))

	ordered := []uint64{s.Min, s.Median, s.P90, s.P99, s.P999, s.P9999, s.P99999, s.Max}
	if !slices.IsSorted(ordered) {
		t.Errorf("expected min <= median <= ... <= max, got %v", ordered)
	}
	if s.Mean < s.Min || s.Mean > s.Max {
		t.Errorf("expected mean within [min, max], got %d", s.Mean)
	}
}

func TestCompute_PureFunction(t *testing.T) {
	r := resultWithGaps(1_000_000, 30, 10, 20)

	first := Compute(r)
	second := Compute(r)

	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestCompute_DoesNotModifyInput(t *testing.T) {
	r := resultWithGaps(1_000_000, 30, 10, 20)
	before := slices.Clone(r.Interruptions)

	Compute(r)

	if !slices.Equal(before, r.Interruptions) {
		t.Errorf("expected interruptions in time order, got %v", r.Interruptions)
	}
}

func TestComputeAll(t *testing.T) {
	a := resultWithGaps(100, 1)
	b := resultWithGaps(100, 1, 2)
	b.CPU = 7

	stats := ComputeAll([]core.ThreadResult{a, b})

	if len(stats) != 2 || stats[0].Count != 1 || stats[1].Count != 2 || stats[1].CPU != 7 {
		t.Errorf("expected stats in input order, got %+v", stats)
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []uint64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	if p := ComputePercentile(sorted, 1, 2); p != 60 {
		t.Errorf("expected p50=60, got %d", p)
	}
	if p := ComputePercentile(sorted, 9, 10); p != 100 {
		t.Errorf("expected p90=100, got %d", p)
	}
	if p := ComputePercentile(nil, 1, 2); p != 0 {
		t.Errorf("expected 0 for empty slice, got %d", p)
	}
}

func TestSortedByGap(t *testing.T) {
	records := []core.Interruption{
		{Timestamp: 1, Gap: 30},
		{Timestamp: 2, Gap: 10},
		{Timestamp: 3, Gap: 30},
		{Timestamp: 4, Gap: 20},
	}

	sorted := SortedByGap(records)

	want := []core.Interruption{
		{Timestamp: 2, Gap: 10},
		{Timestamp: 4, Gap: 20},
		{Timestamp: 1, Gap: 30},
		{Timestamp: 3, Gap: 30},
	}
	if !slices.Equal(sorted, want) {
		t.Errorf("expected %v, got %v", want, sorted)
	}
	if records[0].Timestamp != 1 {
		t.Error("expected input to keep its order")
	}
}

func BenchmarkCompute(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	gaps := make([]uint64, 100_000)
	for i := range gaps {
		gaps[i] = rng.Uint64N(1_000_000)
	}
	r := resultWithGaps(1<<40, gaps...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute(r)
	}
}
