package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Package-level defaults keep services usable before InitLogger runs
// (tests, one-off tools).
var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

func InitLogger() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	// InfoLogger ke stdout, ErrorLogger ke stderr
	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	InfoLogger.SetLevel(logrus.InfoLevel)
	// Warnings (swallowed cross-service failures) go to the error stream too.
	ErrorLogger.SetLevel(logrus.WarnLevel)
}
