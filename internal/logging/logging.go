// Package logging builds the shared logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a logger writing to stderr. format is "text" or "json".
// An invalid level falls back to info and is reported on the returned logger.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		defer log.Warn(fmt.Sprintf("invalid log level %q, defaulting to info", level))
	}
	log.SetLevel(lvl)
	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
