package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns the application logger. Logs are discarded unless
// verbose is set, in which case debug output goes to standard error.
func NewLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
