// Package logging constructs the shared logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// New returns a logger writing human-readable lines to stderr. Unknown
// levels fall back to info.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	SetLevel(logger, level)
	return logger
}

// SetLevel adjusts the level of an existing logger, for when the level is
// only known after config resolution.
func SetLevel(logger *logrus.Logger, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
}
