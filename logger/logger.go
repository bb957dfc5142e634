// Package logger provides the process-wide structured logger.
//
// Config.Logging (level, console/file sinks, and a format template with
// {timestamp}, {level} and {message} placeholders) drives a single *zap.SugaredLogger exposed as Logger. Call
// Initialize once at startup; everything before that logs through a
// no-op logger so early package init code never panics on a nil Logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. Safe to use before Initialize; it
// no-ops until then.
var Logger = zap.NewNop().Sugar()

// Options configures Initialize. It mirrors the `logging` block of the
// router's YAML configuration.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Console enables logging to stderr.
	Console bool
	// FileEnabled enables logging to FilePath.
	FileEnabled bool
	FilePath    string
	// Format is a template using {timestamp}, {level}, {message}
	// placeholders. Ignored when JSON is true.
	Format string
	// JSON switches to structured JSON output (production style) instead
	// of the templated console encoder.
	JSON bool
}

// Initialize builds the global Logger from opts. It is safe to call more
// than once (e.g. after a config reload in tests); the previous logger is
// replaced, not merged.
func Initialize(opts Options) error {
	level := parseLevel(opts.Level)

	var encoder zapcore.Encoder
	if opts.JSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		encoder = newTemplateEncoder(opts.Format)
	}

	var sinks []zapcore.WriteSyncer
	if opts.Console || (!opts.Console && !opts.FileEnabled) {
		sinks = append(sinks, zapcore.AddSync(os.Stderr))
	}
	if opts.FileEnabled {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", opts.FilePath, err)
		}
		sinks = append(sinks, zapcore.AddSync(f))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	Logger = zap.New(core).Sugar()
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries. Errors from Sync on a terminal
// fd (EINVAL/ENOTTY on Linux and macOS) are expected and ignored.
func Sync() {
	_ = Logger.Sync()
}

// Infow logs an info message with structured fields.
func Infow(msg string, keysAndValues ...interface{}) { Logger.Infow(msg, keysAndValues...) }

// Warnw logs a warning message with structured fields.
func Warnw(msg string, keysAndValues ...interface{}) { Logger.Warnw(msg, keysAndValues...) }

// Errorw logs an error message with structured fields.
func Errorw(msg string, keysAndValues ...interface{}) { Logger.Errorw(msg, keysAndValues...) }

// Debugw logs a debug message with structured fields.
func Debugw(msg string, keysAndValues ...interface{}) { Logger.Debugw(msg, keysAndValues...) }
