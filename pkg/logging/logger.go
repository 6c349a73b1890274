// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Context field names shared by pairscan loggers.
const (
	FieldComponent = "component"
	FieldFactory   = "factory"
	FieldBatchSize = "batch_size"
)

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts LogLevel to zerolog.Level. Empty or unknown levels map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	l, ok := lookupLevel(level)
	if !ok {
		return zerolog.InfoLevel
	}
	return l
}

// ValidLevel reports whether level names a supported level. Empty is valid.
func ValidLevel(level LogLevel) bool {
	_, ok := lookupLevel(level)
	return ok || strings.TrimSpace(string(level)) == ""
}

func lookupLevel(level LogLevel) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = string(LevelWarn)
	}
	switch LogLevel(name) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		l, err := zerolog.ParseLevel(name)
		return l, err == nil
	}
	return zerolog.NoLevel, false
}

// NewLogger creates a logger tagged with the emitting component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str(FieldComponent, component).Logger()
}

// WithFactory scopes logger to one factory contract.
func WithFactory(logger zerolog.Logger, factory string) zerolog.Logger {
	return logger.With().Str(FieldFactory, factory).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Degraded remote calls (contract, method, stage)
//   - Batch flushes (size, trigger, duration)
//   - Name cache hits and misses
//
// Info: Normal operation events
//   - Discovery start (factory, total pairs)
//   - Each completed batch ("batch done")
//   - Output written
//
// Warn: Conditions that don't stop the run
//   - Name cache errors (fallback to RPC)
//   - Failed batch flush
//
// Error: Conditions that end the run
//   - allPairsLength / allPairs failures
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - factory: factory contract address
//   - contract, method, stage: remote call identification
//   - index, total, rows: discovery progress
//   - batch_size, trigger: batch flush details
//   - error_class: node error classification
//   - duration: elapsed time
