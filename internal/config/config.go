// Package config handles the run file: YAML, or TOML for files ending in
// .toml. Values left out of the file keep their defaults, and command-line
// flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/j-r-jones/sysjitter/internal/collector"
	"github.com/j-r-jones/sysjitter/internal/host"
)

const (
	DefaultRuntime          = 70 * time.Second
	DefaultMaxInterruptions = 1_000_000

	// MaxThresholdNs is the longest threshold accepted, a little over four
	// seconds.
	MaxThresholdNs = math.MaxUint32
)

// Config is the root configuration structure.
type Config struct {
	ThresholdNs      uint64            `yaml:"threshold_ns" toml:"threshold_ns"`
	Runtime          time.Duration     `yaml:"runtime" toml:"runtime"`
	Cores            string            `yaml:"cores" toml:"cores"` // kernel list format, e.g. "0-3,8"
	Raw              string            `yaml:"raw" toml:"raw"`     // raw file prefix
	Sort             bool              `yaml:"sort" toml:"sort"`
	Verbose          bool              `yaml:"verbose" toml:"verbose"`
	MaxInterruptions int               `yaml:"max_interruptions" toml:"max_interruptions"`
	CoordinatorCore  *int              `yaml:"coordinator_core,omitempty" toml:"coordinator_core,omitempty"`
	Output           string            `yaml:"output" toml:"output"`
	Textfile         string            `yaml:"textfile" toml:"textfile"`
	Progress         bool              `yaml:"progress" toml:"progress"`
	Limits           *collector.Limits `yaml:"limits,omitempty" toml:"limits,omitempty"`
	Logging          LoggingConfig     `yaml:"logging" toml:"logging"`
}

// LoggingConfig contains the logging settings.
type LoggingConfig struct {
	// trace, debug, info, warn or error
	Level string `yaml:"level" toml:"level"`
	// auto, logfmt, glog or json
	Format string `yaml:"format" toml:"format"`
	// stderr or stdout
	Writer string `yaml:"writer" toml:"writer"`
	// Colorize console output (auto format only)
	Color bool `yaml:"color" toml:"color"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Runtime:          DefaultRuntime,
		MaxInterruptions: DefaultMaxInterruptions,
		Output:           "text",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
			Writer: "stderr",
		},
	}
}

// LoadConfig reads a configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing config file: unknown keys %v", undecoded)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// an empty file is an empty configuration
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the measurement cannot run with.
func (c *Config) Validate() error {
	if c.ThresholdNs > MaxThresholdNs {
		return fmt.Errorf("threshold_ns must be at most %d, got %d", uint64(MaxThresholdNs), c.ThresholdNs)
	}
	if c.Runtime < time.Second {
		return fmt.Errorf("runtime must be at least 1s, got %v", c.Runtime)
	}
	if c.MaxInterruptions <= 0 {
		return fmt.Errorf("max_interruptions must be positive, got %d", c.MaxInterruptions)
	}
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("output must be 'text' or 'json', got %q", c.Output)
	}
	if c.Cores != "" {
		if _, err := host.ParseCPUList(c.Cores); err != nil {
			return fmt.Errorf("cores: %w", err)
		}
	}
	if c.CoordinatorCore != nil && *c.CoordinatorCore < 0 {
		return fmt.Errorf("coordinator_core must not be negative, got %d", *c.CoordinatorCore)
	}
	if l := c.Limits; l != nil {
		if l.Max < 0 || l.P99 < 0 || l.P999 < 0 || l.Mean < 0 || l.Percent < 0 {
			return errors.New("limits must not be negative")
		}
	}
	return c.Logging.Validate()
}

// Validate checks the logging settings.
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", l.Level)
	}
	switch l.Format {
	case "auto", "logfmt", "glog", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", l.Format)
	}
	switch l.Writer {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("logging.writer: must be stderr or stdout, got %q", l.Writer)
	}
	return nil
}
