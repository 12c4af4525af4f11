package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLogger configures both loggers in place, so entries derived from them stay valid.
func InitLogger() {
	// info to stdout
	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// warnings and errors to stderr
	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	InfoLogger.SetLevel(logrus.InfoLevel)
	ErrorLogger.SetLevel(logrus.WarnLevel)
}

// SetLevel parses a level name ("debug", "info", ...) for the info logger.
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	if lvl, err := logrus.ParseLevel(name); err == nil {
		InfoLogger.SetLevel(lvl)
	}
}
