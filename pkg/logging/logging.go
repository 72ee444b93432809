// Package logging builds the service logger and the HTTP access log middleware.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// EnvDevelopment switches on debug level and human-readable output.
const EnvDevelopment = "development"

// New constructs a zerolog.Logger writing to stdout.
func New(env string) zerolog.Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if env == EnvDevelopment {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "insights").
		Logger()

	if env == EnvDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger
}
