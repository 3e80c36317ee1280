// Package collector turns the interruptions recorded by the workers into
// per-CPU statistics and writes them out: as the summary table, as JSON and
// as raw per-CPU files. It also checks the statistics against limits.
package collector

import (
	"slices"

	"github.com/j-r-jones/sysjitter/internal/core"
)

// Compute computes the statistics of one thread. Pure function, no side
// effects: the interruptions are neither sorted nor modified.
func Compute(r core.ThreadResult) Stats {
	s := Stats{
		CPU:     r.CPU,
		MHz:     r.MHz,
		Count:   len(r.Interruptions),
		Total:   r.Total,
		Runtime: r.Runtime(),
		Start:   r.Start,
		Stop:    r.Stop,
	}
	if s.Runtime > 0 {
		s.Percent = 100 * float64(s.Total) / float64(s.Runtime)
		if secs := r.CyclesToSeconds(s.Runtime); secs > 0 {
			s.PerSecond = float64(s.Count) / secs
		}
	}
	if s.Count == 0 {
		return s
	}

	gaps := make([]uint64, s.Count)
	for i, in := range r.Interruptions {
		gaps[i] = in.Gap
	}
	slices.Sort(gaps)

	s.Min = gaps[0]
	s.Max = gaps[len(gaps)-1]
	s.Mean = s.Total / uint64(s.Count)
	s.Median = ComputePercentile(gaps, 1, 2)
	s.P90 = ComputePercentile(gaps, 9, 10)
	s.P99 = ComputePercentile(gaps, 99, 100)
	s.P999 = ComputePercentile(gaps, 999, 1000)
	s.P9999 = ComputePercentile(gaps, 9999, 10000)
	s.P99999 = ComputePercentile(gaps, 99999, 100000)
	return s
}

// ComputeAll computes the statistics of every thread, in order.
func ComputeAll(results []core.ThreadResult) []Stats {
	stats := make([]Stats, len(results))
	for i := range results {
		stats[i] = Compute(results[i])
	}
	return stats
}

// SortedByGap returns a copy of records ordered by ascending gap. Records
// with equal gaps keep their time order.
func SortedByGap(records []core.Interruption) []core.Interruption {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b core.Interruption) int {
		switch {
		case a.Gap < b.Gap:
			return -1
		case a.Gap > b.Gap:
			return 1
		}
		return 0
	})
	return sorted
}
