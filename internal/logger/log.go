// Package logger configures the process-wide phuslu logger.
package logger

import (
	"bytes"
	"io"
	"os"

	"github.com/phuslu/log"

	"github.com/j-r-jones/sysjitter/internal/config"
)

// parseLogLevel converts string log level to log.Level
func parseLogLevel(levelStr string) log.Level {
	switch levelStr {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// GlogFormatter implements a glog-style text format.
type GlogFormatter struct{}

// Formatter builds the log entry in glog format.
func (f GlogFormatter) Formatter(w io.Writer, a *log.FormatterArgs) (int, error) {
	var buf bytes.Buffer

	// Level (e.g., 'I' for info)
	if len(a.Level) > 0 {
		buf.WriteByte(a.Level[0] - 32)
	} else {
		buf.WriteByte('?')
	}

	buf.WriteString(a.Time)
	buf.WriteByte(' ')
	buf.WriteString(a.Goid)
	buf.WriteByte(' ')
	buf.WriteString(a.Caller)
	buf.WriteString("] ")

	buf.WriteString(a.Message)
	for _, kv := range a.KeyValues {
		buf.WriteByte(' ')
		buf.WriteString(kv.Key)
		buf.WriteByte('=')
		buf.WriteString(kv.Value)
	}
	buf.WriteByte('\n')

	return w.Write(buf.Bytes())
}

// newWriter creates a writer for the configured format on top of out.
func newWriter(cfg config.LoggingConfig, out io.Writer) log.Writer {
	if cfg.Format == "json" {
		return &log.IOWriter{Writer: out}
	}

	consoleWriter := &log.ConsoleWriter{
		ColorOutput:    cfg.Color,
		QuoteString:    true,
		EndWithMessage: true,
		Writer:         out,
	}
	switch cfg.Format {
	case "logfmt":
		consoleWriter.Formatter = log.LogfmtFormatter{TimeField: "time"}.Formatter
	case "glog":
		consoleWriter.Formatter = GlogFormatter{}.Formatter
	}
	return consoleWriter
}

// New returns a logger writing to out as configured. verbose forces at
// least debug level.
func New(cfg config.LoggingConfig, verbose bool, out io.Writer) log.Logger {
	level := parseLogLevel(cfg.Level)
	if verbose && level > log.DebugLevel {
		level = log.DebugLevel
	}
	return log.Logger{
		Level:      level,
		TimeFormat: "15:04:05.000",
		Writer:     newWriter(cfg, out),
	}
}

// ConfigureLogging configures the global DefaultLogger.
func ConfigureLogging(cfg config.LoggingConfig, verbose bool) {
	var out io.Writer = os.Stderr
	if cfg.Writer == "stdout" {
		out = os.Stdout
	}
	log.DefaultLogger = New(cfg, verbose, out)
}
