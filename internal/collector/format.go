package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatText writes the summary table: one line per field, one column per
// CPU. Times are in nanoseconds. The layout is stable so scripts can parse
// it.
func FormatText(w io.Writer, thresholdNs uint64, stats []Stats, verbose bool) {
	row := func(label string, value func(s Stats) string) {
		var b strings.Builder
		b.WriteString(label)
		b.WriteByte(':')
		for _, s := range stats {
			b.WriteByte(' ')
			b.WriteString(value(s))
		}
		b.WriteByte('\n')
		io.WriteString(w, b.String())
	}
	ns := func(field func(s Stats) uint64) func(s Stats) string {
		return func(s Stats) string { return fmt.Sprint(s.Nanos(field(s))) }
	}

	row("core_i", func(s Stats) string { return fmt.Sprint(s.CPU) })
	row("threshold(ns)", func(Stats) string { return fmt.Sprint(thresholdNs) })
	row("cpu_mhz", func(s Stats) string { return fmt.Sprint(s.MHz) })
	row("runtime(ns)", ns(func(s Stats) uint64 { return s.Runtime }))
	row("runtime(s)", func(s Stats) string { return fmt.Sprintf("%.3f", s.Seconds(s.Runtime)) })
	row("int_n", func(s Stats) string { return fmt.Sprint(s.Count) })
	row("int_n_per_sec", func(s Stats) string { return fmt.Sprintf("%.3f", s.PerSecond) })
	row("int_min(ns)", ns(func(s Stats) uint64 { return s.Min }))
	row("int_median(ns)", ns(func(s Stats) uint64 { return s.Median }))
	row("int_mean(ns)", ns(func(s Stats) uint64 { return s.Mean }))
	row("int_90(ns)", ns(func(s Stats) uint64 { return s.P90 }))
	row("int_99(ns)", ns(func(s Stats) uint64 { return s.P99 }))
	row("int_999(ns)", ns(func(s Stats) uint64 { return s.P999 }))
	row("int_9999(ns)", ns(func(s Stats) uint64 { return s.P9999 }))
	row("int_99999(ns)", ns(func(s Stats) uint64 { return s.P99999 }))
	row("int_max(ns)", ns(func(s Stats) uint64 { return s.Max }))
	row("int_total(ns)", ns(func(s Stats) uint64 { return s.Total }))
	row("int_total(%)", func(s Stats) string { return fmt.Sprintf("%.3f", s.Percent) })
	if verbose {
		row("frc_start", func(s Stats) string { return fmt.Sprintf("%x", s.Start) })
		row("frc_stop", func(s Stats) string { return fmt.Sprintf("%x", s.Stop) })
	}
}

// FormatJSON writes the summary as JSON, with the same fields per CPU as
// FormatText and the limit results if any were checked.
func FormatJSON(w io.Writer, thresholdNs uint64, stats []Stats, verbose bool, limits *LimitResults) error {
	output := struct {
		ThresholdNs uint64        `json:"threshold_ns"`
		Cores       []jsonStats   `json:"cores"`
		Limits      *LimitResults `json:"limits,omitempty"`
	}{
		ThresholdNs: thresholdNs,
		Cores:       make([]jsonStats, len(stats)),
		Limits:      limits,
	}
	for i, s := range stats {
		output.Cores[i] = toJSONStats(s, verbose)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

type jsonStats struct {
	CPU       int     `json:"core_i"`
	MHz       uint64  `json:"cpu_mhz"`
	RuntimeNs uint64  `json:"runtime_ns"`
	RuntimeS  float64 `json:"runtime_s"`
	Count     int     `json:"int_n"`
	PerSecond float64 `json:"int_n_per_sec"`
	MinNs     uint64  `json:"int_min_ns"`
	MedianNs  uint64  `json:"int_median_ns"`
	MeanNs    uint64  `json:"int_mean_ns"`
	P90Ns     uint64  `json:"int_90_ns"`
	P99Ns     uint64  `json:"int_99_ns"`
	P999Ns    uint64  `json:"int_999_ns"`
	P9999Ns   uint64  `json:"int_9999_ns"`
	P99999Ns  uint64  `json:"int_99999_ns"`
	MaxNs     uint64  `json:"int_max_ns"`
	TotalNs   uint64  `json:"int_total_ns"`
	TotalPct  float64 `json:"int_total_pct"`
	FrcStart  string  `json:"frc_start,omitempty"`
	FrcStop   string  `json:"frc_stop,omitempty"`
}

func toJSONStats(s Stats, verbose bool) jsonStats {
	js := jsonStats{
		CPU:       s.CPU,
		MHz:       s.MHz,
		RuntimeNs: s.Nanos(s.Runtime),
		RuntimeS:  s.Seconds(s.Runtime),
		Count:     s.Count,
		PerSecond: s.PerSecond,
		MinNs:     s.Nanos(s.Min),
		MedianNs:  s.Nanos(s.Median),
		MeanNs:    s.Nanos(s.Mean),
		P90Ns:     s.Nanos(s.P90),
		P99Ns:     s.Nanos(s.P99),
		P999Ns:    s.Nanos(s.P999),
		P9999Ns:   s.Nanos(s.P9999),
		P99999Ns:  s.Nanos(s.P99999),
		MaxNs:     s.Nanos(s.Max),
		TotalNs:   s.Nanos(s.Total),
		TotalPct:  s.Percent,
	}
	if verbose {
		js.FrcStart = fmt.Sprintf("%x", s.Start)
		js.FrcStop = fmt.Sprintf("%x", s.Stop)
	}
	return js
}
