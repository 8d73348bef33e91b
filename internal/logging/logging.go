// Package logging configures the zerolog logger shared by all billbench
// commands. Logs always go to stderr; stdout is reserved for report output.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a logger in the requested format: "text" for a
// human-friendly console, anything else for structured JSON.
func Setup(format string) zerolog.Logger {
	if format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
