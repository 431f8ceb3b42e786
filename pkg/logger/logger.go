// Package logger provides the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// EnvLevel is the environment variable read by ConfigureFromEnv.
const EnvLevel = "TESTBED_LOG_LEVEL"

var (
	instance *log.Logger
	once     sync.Once
)

// Default returns the shared logger, creating it on first use.
func Default() *log.Logger {
	once.Do(func() {
		instance = New(os.Stderr)
	})
	return instance
}

// New creates a logger writing to w with the project's formatting.
func New(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
}

// OrDefault returns l, or the shared logger when l is nil.
func OrDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return Default()
	}
	return l
}

// ParseLevel maps a level name to a log level.
// Unknown names map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// SetLevel sets the shared logger's level from a level name.
func SetLevel(level string) {
	Default().SetLevel(ParseLevel(level))
}

// ConfigureFromEnv applies TESTBED_LOG_LEVEL when it is set.
func ConfigureFromEnv() {
	if level := os.Getenv(EnvLevel); level != "" {
		SetLevel(level)
		Default().Debug("log level set from environment", "level", level)
	}
}
