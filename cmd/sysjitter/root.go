package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-r-jones/sysjitter/internal/config"
	"github.com/j-r-jones/sysjitter/internal/host"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	rootShort = "Measure how often, and for how long, the OS takes CPUs away from a thread."
	rootLong  = `
		sysjitter spins one thread on every selected CPU, reads the cycle counter
		in a tight loop and records every gap between two reads that is at least
		THRESHOLD_NSEC long. Such gaps are interruptions: interrupts, preemption,
		SMIs and other system noise.

		A one second calibration run sizes the interruption buffers, then the
		full run lasts --runtime seconds. A summary with one column per CPU is
		printed at the end. Run it on an otherwise idle machine.`

	rootExample = `
		# Measure all CPUs for 70 seconds, counting gaps of 200ns or more
		sysjitter 200

		# Measure CPUs 2-7 for ten seconds and keep every interruption
		sysjitter --cores 2-7 --runtime 10 --raw /tmp/jitter 200

		# JSON summary and a node_exporter textfile
		sysjitter --output json --textfile /var/lib/node_exporter/sysjitter.prom 1000

		# Settings and limits from a file
		sysjitter --config sysjitter.yaml`
)

// RootFlags holds the command line. Flags that were not given leave the
// configuration file values alone.
type RootFlags struct {
	ConfigPath      string
	Runtime         int // seconds
	Raw             string
	Cores           string
	Sort            bool
	Verbose         bool
	Max             int
	Output          string
	Textfile        string
	CoordinatorCore int
	Progress        bool
	LogLevel        string
}

func NewRootFlags() *RootFlags {
	d := config.Default()
	return &RootFlags{
		Runtime:  int(d.Runtime / time.Second),
		Max:      d.MaxInterruptions,
		Output:   d.Output,
		LogLevel: d.Logging.Level,
	}
}

// AddFlags registers flags for a cli
func (flags *RootFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", flags.ConfigPath,
		"Read settings from a YAML file, or TOML if the name ends in .toml.")

	// Measurement
	cmd.Flags().IntVar(&flags.Runtime, "runtime", flags.Runtime,
		"Length of the full run in seconds.")
	cmd.Flags().StringVar(&flags.Cores, "cores", flags.Cores,
		"CPUs to measure, e.g. 0-3,8. Defaults to every CPU the process may run on.")
	cmd.Flags().IntVar(&flags.Max, "max", flags.Max,
		"Interruption records per CPU for the calibration run.")
	cmd.Flags().IntVar(&flags.CoordinatorCore, "coordinator-core", flags.CoordinatorCore,
		"CPU for the coordinating thread. Defaults to the first allowed CPU that is not measured.")

	// Output
	cmd.Flags().StringVar(&flags.Raw, "raw", flags.Raw,
		"Write every interruption to PREFIX.<cpu>.")
	cmd.Flags().BoolVar(&flags.Sort, "sort", flags.Sort,
		"Order raw files by gap length instead of time.")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", flags.Output,
		"Summary format: text or json.")
	cmd.Flags().StringVar(&flags.Textfile, "textfile", flags.Textfile,
		"Also write the summary as Prometheus metrics to this file.")
	cmd.Flags().BoolVar(&flags.Progress, "progress", flags.Progress,
		"Show a status line on stderr while measuring.")

	// Logging
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", flags.Verbose,
		"Print counter values in the summary and log at debug level.")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel,
		"Log level: trace, debug, info, warn or error.")
}

// ToOptions merges the flags that were set over the configuration file and
// resolves the CPUs against the ones in allowed.
func (flags *RootFlags) ToOptions(cmd *cobra.Command, args []string, allowed []int) (*RootOptions, error) {
	cfg := config.Default()
	if flags.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadConfig(flags.ConfigPath); err != nil {
			return nil, err
		}
	}

	switch {
	case len(args) == 1:
		threshold, err := parseThreshold(args[0])
		if err != nil {
			return nil, err
		}
		cfg.ThresholdNs = threshold
	case flags.ConfigPath == "":
		return nil, fmt.Errorf("THRESHOLD_NSEC is required")
	}

	changed := cmd.Flags().Changed
	if changed("runtime") {
		cfg.Runtime = time.Duration(flags.Runtime) * time.Second
	}
	if changed("raw") {
		cfg.Raw = flags.Raw
	}
	if changed("cores") {
		cfg.Cores = flags.Cores
	}
	if changed("sort") {
		cfg.Sort = flags.Sort
	}
	if changed("verbose") {
		cfg.Verbose = flags.Verbose
	}
	if changed("max") {
		cfg.MaxInterruptions = flags.Max
	}
	if changed("output") {
		cfg.Output = flags.Output
	}
	if changed("textfile") {
		cfg.Textfile = flags.Textfile
	}
	if changed("coordinator-core") {
		core := flags.CoordinatorCore
		cfg.CoordinatorCore = &core
	}
	if changed("progress") {
		cfg.Progress = flags.Progress
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cpus, housekeeping, err := resolveCPUs(cfg, allowed)
	if err != nil {
		return nil, err
	}

	return &RootOptions{
		Config:       cfg,
		CPUs:         cpus,
		Housekeeping: housekeeping,
		Out:          cmd.OutOrStdout(),
		ErrOut:       cmd.ErrOrStderr(),
	}, nil
}

// parseThreshold reads THRESHOLD_NSEC, a number of nanoseconds up to
// config.MaxThresholdNs.
func parseThreshold(s string) (uint64, error) {
	threshold, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid THRESHOLD_NSEC %q: must be an integer from 0 to %d", s, uint64(config.MaxThresholdNs))
	}
	return threshold, nil
}

// resolveCPUs returns the CPUs to measure and the housekeeping CPU.
func resolveCPUs(cfg *config.Config, allowed []int) (cpus []int, housekeeping int, err error) {
	cpus = allowed
	if cfg.Cores != "" {
		if cpus, err = host.ParseCPUList(cfg.Cores); err != nil {
			return nil, 0, fmt.Errorf("cores: %w", err)
		}
		if err = host.ValidateCPUs(cpus, allowed); err != nil {
			return nil, 0, fmt.Errorf("cores: %w", err)
		}
	}

	if cfg.CoordinatorCore == nil {
		return cpus, host.HousekeepingCPU(allowed, cpus), nil
	}
	housekeeping = *cfg.CoordinatorCore
	if err = host.ValidateCPUs([]int{housekeeping}, allowed); err != nil {
		return nil, 0, fmt.Errorf("coordinator core: %w", err)
	}
	return cpus, housekeeping, nil
}

// NewCmdRoot returns the sysjitter command.
func NewCmdRoot() *cobra.Command {
	flags := NewRootFlags()
	cmd := &cobra.Command{
		Use:                   "sysjitter [flags] THRESHOLD_NSEC",
		DisableFlagsInUseLine: true,
		Short:                 rootShort,
		Long:                  rootLong,
		Example:               rootExample,
		Version:               version,
		Args:                  cobra.MaximumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			allowed, err := host.AllowedCPUs()
			if err != nil {
				return err
			}
			o, err := flags.ToOptions(cmd, args, allowed)
			if err != nil {
				return err
			}
			return o.Run()
		},
	}

	flags.AddFlags(cmd)

	return cmd
}

// RootOptions is everything a measurement needs, resolved from flags and
// configuration.
type RootOptions struct {
	Config       *config.Config
	CPUs         []int
	Housekeeping int

	Out    io.Writer
	ErrOut io.Writer
}

