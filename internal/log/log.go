// Package log holds the process-wide zap logger used by the binaries.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

var (
	log *zap.SugaredLogger
	// helpers reports the caller of the package-level functions below
	helpers *zap.SugaredLogger
)

// Init initializes the package-level logger. Debug mode uses zap's
// development config, which also enables per-stage pipeline timings.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	log = zapLogger.Sugar()
	helpers = log.WithOptions(zap.AddCallerSkip(1))
	return nil
}

// GetSugaredLogger returns the sugared logger instance for components that
// take an explicit logger
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		// Fallback logger if not initialized
		zapLogger, _ := zap.NewProduction()
		log = zapLogger.Sugar()
		helpers = log.WithOptions(zap.AddCallerSkip(1))
	}
	return log
}

func helper() *zap.SugaredLogger {
	GetSugaredLogger()
	return helpers
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		log.Sync()
	}
}

func Infof(template string, args ...interface{}) {
	helper().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	helper().Infow(msg, keysAndValues...)
}

func Errorf(template string, args ...interface{}) {
	helper().Errorf(template, args...)
}

func Fatalf(template string, args ...interface{}) {
	helper().Errorf(template, args...)
	Sync()
	os.Exit(1)
}
