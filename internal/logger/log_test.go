package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phuslu/log"
	"github.com/tidwall/gjson"

	"github.com/j-r-jones/sysjitter/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]log.Level{
		"trace":   log.TraceLevel,
		"debug":   log.DebugLevel,
		"info":    log.InfoLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("%s: expected %v, got %v", in, want, got)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, false, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Int("cpu", 3).Msg("calibrated")

	line := strings.TrimSpace(buf.String())
	if strings.Count(line, "\n") != 0 {
		t.Fatalf("expected one line, got %q", line)
	}
	if msg := gjson.Get(line, "message").String(); msg != "calibrated" {
		t.Errorf("expected message calibrated, got %q", msg)
	}
	if cpu := gjson.Get(line, "cpu").Int(); cpu != 3 {
		t.Errorf("expected cpu 3, got %d", cpu)
	}
	if level := gjson.Get(line, "level").String(); level != "info" {
		t.Errorf("expected level info, got %q", level)
	}
}

func TestNew_VerboseRaisesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn", Format: "json"}, true, &buf)

	logger.Debug().Msg("shown")

	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected debug output with verbose, got %q", buf.String())
	}
}

func TestNew_VerboseKeepsTrace(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "trace", Format: "json"}, true, &bytes.Buffer{})

	if logger.Level != log.TraceLevel {
		t.Errorf("expected trace level to stay, got %v", logger.Level)
	}
}

func TestNew_ConsoleFormats(t *testing.T) {
	for _, format := range []string{"auto", "logfmt", "glog"} {
		var buf bytes.Buffer
		logger := New(config.LoggingConfig{Level: "info", Format: format}, false, &buf)

		logger.Info().Str("phase", "full").Msg("sampling")

		if !strings.Contains(buf.String(), "sampling") || !strings.Contains(buf.String(), "full") {
			t.Errorf("%s: expected message and field, got %q", format, buf.String())
		}
	}
}
