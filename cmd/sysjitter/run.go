package main

import (
	"errors"
	"fmt"

	"github.com/phuslu/log"

	"github.com/j-r-jones/sysjitter/internal/collector"
	"github.com/j-r-jones/sysjitter/internal/coordinator"
	"github.com/j-r-jones/sysjitter/internal/host"
	"github.com/j-r-jones/sysjitter/internal/logger"
	"github.com/j-r-jones/sysjitter/internal/metrics"
	"github.com/j-r-jones/sysjitter/internal/progress"
)

const (
	ExitSuccess        = 0
	ExitError          = 1
	ExitOverflow       = 2
	ExitRawOutput      = 3
	ExitLimitsExceeded = 4
)

var errLimitsExceeded = errors.New("interruption limits exceeded")

// exitError carries the process exit status for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps the outcome of the command to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitError
}

// Run measures, then writes raw files, the summary, the textfile and limit
// violations, in that order.
func (o *RootOptions) Run() error {
	cfg := o.Config
	logger.ConfigureLogging(cfg.Logging, cfg.Verbose)
	log.Info().Ints("cpus", o.CPUs).Int("housekeeping", o.Housekeeping).
		Uint64("threshold_ns", cfg.ThresholdNs).Dur("runtime", cfg.Runtime).Msg("sysjitter " + version)

	orch := &coordinator.Orchestrator{
		Coordinator:     o.newCoordinator(),
		InitialCapacity: cfg.MaxInterruptions,
	}
	result, err := orch.Run(cfg.ThresholdNs, cfg.Runtime)
	if err != nil {
		if errors.Is(err, coordinator.ErrOverflow) {
			return &exitError{
				code: ExitOverflow,
				err:  fmt.Errorf("%w; increase THRESHOLD_NSEC to record fewer interruptions", err),
			}
		}
		return err
	}
	return o.report(result)
}

func (o *RootOptions) newCoordinator() *coordinator.Coordinator {
	coord := coordinator.NewCoordinator(o.CPUs, o.Housekeeping)
	if o.Config.Progress {
		prog := progress.NewProgress(false)
		prog.SetOutput(o.ErrOut)
		housekeeping := o.Housekeeping
		prog.Pin = func() error { return host.PinThread(housekeeping) }
		coord.Progress = prog
	}
	return coord
}

// report writes everything derived from a completed measurement. A failed
// output does not stop the ones after it. The exit status is that of the
// first failure.
func (o *RootOptions) report(result *coordinator.Result) error {
	cfg := o.Config
	threads := result.Full.Threads
	code := ExitSuccess
	var errs []error
	fail := func(c int, err error) {
		if code == ExitSuccess {
			code = c
		}
		errs = append(errs, err)
	}

	if cfg.Raw != "" {
		if err := collector.WriteRawFiles(cfg.Raw, threads, result.ThresholdNs, cfg.Sort); err != nil {
			log.Error().Err(err).Str("prefix", cfg.Raw).Msg("cannot write raw files")
			fail(ExitRawOutput, err)
		}
	}

	stats := collector.ComputeAll(threads)
	var limits *collector.LimitResults
	if cfg.Limits != nil {
		limits = cfg.Limits.Check(stats)
	}

	switch cfg.Output {
	case "json":
		if err := collector.FormatJSON(o.Out, result.ThresholdNs, stats, cfg.Verbose, limits); err != nil {
			fail(ExitError, fmt.Errorf("writing summary: %w", err))
		}
	default:
		collector.FormatText(o.Out, result.ThresholdNs, stats, cfg.Verbose)
	}

	if cfg.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Textfile, result.ThresholdNs, stats); err != nil {
			fail(ExitError, fmt.Errorf("writing textfile: %w", err))
		} else {
			log.Debug().Str("path", cfg.Textfile).Msg("wrote textfile")
		}
	}

	if limits != nil && !limits.Passed {
		collector.FormatViolations(o.ErrOut, limits)
		fail(ExitLimitsExceeded, errLimitsExceeded)
	}

	if len(errs) > 0 {
		return &exitError{code: code, err: errors.Join(errs...)}
	}
	return nil
}
