// Package logging configures the process-wide logger used by all
// gauntlet components.
//
// Components never take a *logrus.Logger directly; they accept
// logrus.FieldLogger so tests can substitute a logger with the
// logrus test hook attached and assert on emitted entries.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Format selects the output encoding of log entries.
type Format string

const (
	// FormatText renders human-readable entries, suited for local runs.
	FormatText Format = "text"

	// FormatJSON renders one JSON object per entry, suited for CI log
	// collectors.
	FormatJSON Format = "json"
)

// New returns a logger writing to w at the given level.
// Unknown level strings fall back to info rather than failing, so a
// typo in config degrades verbosity instead of aborting a suite run.
func New(w io.Writer, level string, format Format) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	switch format {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	return logger
}

// Default returns a text logger on stderr at info level.
func Default() *logrus.Logger {
	return New(os.Stderr, "info", FormatText)
}

// Discard returns a logger that drops every entry. Used as the
// fallback when a component is constructed without a logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
