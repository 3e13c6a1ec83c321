// Package logger configures the shared zerolog instance used by the
// sync agent. Output is JSON for production and pretty-printed to
// stderr during development.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance
var Log zerolog.Logger

func init() {
	// Default to JSON output for production
	Log = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()

	// Pretty print for development if requested
	if os.Getenv("APP_ENV") != "production" {
		Log = Log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// With returns a child logger tagged with a component name so log lines
// can be traced back to the store, engine, monitor, etc.
func With(component string) zerolog.Logger {
	return Log.With().Str("component", component).Logger()
}
