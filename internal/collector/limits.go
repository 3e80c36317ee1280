package collector

import (
	"fmt"
	"io"
	"time"
)

// Limits defines pass/fail criteria per CPU. Zero values are not checked.
type Limits struct {
	Max     time.Duration `yaml:"max" toml:"max"`
	P99     time.Duration `yaml:"p99" toml:"p99"`
	P999    time.Duration `yaml:"p999" toml:"p999"`
	Mean    time.Duration `yaml:"mean" toml:"mean"`
	Percent float64       `yaml:"percent" toml:"percent"` // share of runtime interrupted
}

// LimitResult represents the outcome of a single limit check on one CPU.
type LimitResult struct {
	CPU    int    `json:"cpu"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Limit  string `json:"limit"`
	Actual string `json:"actual"`
}

// LimitResults contains all limit check results.
type LimitResults struct {
	Passed  bool          `json:"passed"`
	Results []LimitResult `json:"results"`
}

// Check evaluates all limits against the statistics of every CPU. A value
// equal to its limit passes.
func (l *Limits) Check(stats []Stats) *LimitResults {
	if l == nil {
		return &LimitResults{Passed: true, Results: nil}
	}

	results := &LimitResults{
		Passed:  true,
		Results: make([]LimitResult, 0),
	}
	for _, s := range stats {
		results.checkDurations(l, s)
		results.checkPercent(l, s)
	}
	return results
}

func (r *LimitResults) checkDurations(l *Limits, s Stats) {
	checks := []struct {
		name   string
		limit  time.Duration
		actual time.Duration
	}{
		{"int_max", l.Max, s.Duration(s.Max)},
		{"int_99", l.P99, s.Duration(s.P99)},
		{"int_999", l.P999, s.Duration(s.P999)},
		{"int_mean", l.Mean, s.Duration(s.Mean)},
	}

	for _, check := range checks {
		if check.limit == 0 {
			continue
		}
		r.add(LimitResult{
			CPU:    s.CPU,
			Name:   check.name,
			Passed: check.actual <= check.limit,
			Limit:  FormatDuration(check.limit),
			Actual: FormatDuration(check.actual),
		})
	}
}

func (r *LimitResults) checkPercent(l *Limits, s Stats) {
	if l.Percent == 0 {
		return
	}
	r.add(LimitResult{
		CPU:    s.CPU,
		Name:   "int_total(%)",
		Passed: s.Percent <= l.Percent,
		Limit:  fmt.Sprintf("%.3f%%", l.Percent),
		Actual: fmt.Sprintf("%.3f%%", s.Percent),
	})
}

func (r *LimitResults) add(result LimitResult) {
	if !result.Passed {
		r.Passed = false
	}
	r.Results = append(r.Results, result)
}

// Violations returns only the failed limit results.
func (r *LimitResults) Violations() []LimitResult {
	violations := make([]LimitResult, 0)
	for _, result := range r.Results {
		if !result.Passed {
			violations = append(violations, result)
		}
	}
	return violations
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatViolations writes one line per failed limit.
func FormatViolations(w io.Writer, r *LimitResults) {
	for _, v := range r.Violations() {
		fmt.Fprintf(w, "cpu %d: %s %s exceeds limit %s\n", v.CPU, v.Name, v.Actual, v.Limit)
	}
}
