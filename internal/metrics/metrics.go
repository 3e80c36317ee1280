// Package metrics exports the statistics of a run in the Prometheus text
// format, for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/j-r-jones/sysjitter/internal/collector"
)

// JitterCollector exposes the per-CPU statistics of one finished run.
type JitterCollector struct {
	thresholdNs uint64
	stats       []collector.Stats

	interruptions *prometheus.Desc
	quantiles     *prometheus.Desc
	totalSeconds  *prometheus.Desc
	ratio         *prometheus.Desc
	runtime       *prometheus.Desc
	mhz           *prometheus.Desc
	threshold     *prometheus.Desc
}

func NewJitterCollector(thresholdNs uint64, stats []collector.Stats) *JitterCollector {
	cpu := []string{"cpu"}
	return &JitterCollector{
		thresholdNs: thresholdNs,
		stats:       stats,
		interruptions: prometheus.NewDesc(
			"sysjitter_interruptions",
			"Number of interruptions at or above the threshold",
			cpu, nil,
		),
		quantiles: prometheus.NewDesc(
			"sysjitter_interruption_seconds",
			"Interruption length quantiles; 0 and 1 are the minimum and maximum",
			[]string{"cpu", "quantile"}, nil,
		),
		totalSeconds: prometheus.NewDesc(
			"sysjitter_interruption_total_seconds",
			"Sum of all interruptions",
			cpu, nil,
		),
		ratio: prometheus.NewDesc(
			"sysjitter_interruption_ratio",
			"Share of the runtime spent interrupted",
			cpu, nil,
		),
		runtime: prometheus.NewDesc(
			"sysjitter_runtime_seconds",
			"Time spent sampling",
			cpu, nil,
		),
		mhz: prometheus.NewDesc(
			"sysjitter_cpu_mhz",
			"Calibrated cycle counter frequency",
			cpu, nil,
		),
		threshold: prometheus.NewDesc(
			"sysjitter_threshold_seconds",
			"Shortest gap counted as an interruption",
			nil, nil,
		),
	}
}

func (c *JitterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.interruptions
	ch <- c.quantiles
	ch <- c.totalSeconds
	ch <- c.ratio
	ch <- c.runtime
	ch <- c.mhz
	ch <- c.threshold
}

func (c *JitterCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.threshold, prometheus.GaugeValue, float64(c.thresholdNs)/1e9)

	for _, s := range c.stats {
		cpu := strconv.Itoa(s.CPU)
		gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, append([]string{cpu}, labels...)...)
		}

		gauge(c.interruptions, float64(s.Count))
		for _, q := range []struct {
			label  string
			cycles uint64
		}{
			{"0", s.Min},
			{"0.5", s.Median},
			{"0.9", s.P90},
			{"0.99", s.P99},
			{"0.999", s.P999},
			{"0.9999", s.P9999},
			{"0.99999", s.P99999},
			{"1", s.Max},
		} {
			gauge(c.quantiles, s.Seconds(q.cycles), q.label)
		}
		gauge(c.totalSeconds, s.Seconds(s.Total))
		gauge(c.ratio, s.Percent/100)
		gauge(c.runtime, s.Seconds(s.Runtime))
		gauge(c.mhz, float64(s.MHz))
	}
}

// WriteTextfile writes the statistics to path, atomically replacing any
// previous file.
func WriteTextfile(path string, thresholdNs uint64, stats []collector.Stats) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewJitterCollector(thresholdNs, stats)); err != nil {
		return fmt.Errorf("registering jitter metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing textfile %s: %w", path, err)
	}
	return nil
}
