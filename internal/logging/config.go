// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "SENSORLOGD_LOG_LEVEL"
	EnvLogNoColor = "SENSORLOGD_LOG_NOCOLOR"
)

var configureOnce sync.Once

// Configure initializes the global logger exactly once and returns it.
func Configure(app string) zerolog.Logger {
	configureOnce.Do(func() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    noColorFromEnv(),
		}
		logger := zerolog.New(output).
			With().Timestamp().Str("app", app).Logger().
			Level(levelFromEnv(zerolog.InfoLevel))
		log.Logger = logger
	})
	return log.Logger
}

// ConfigureTests returns a quiet logger for package tests without touching the
// global one.
func ConfigureTests() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
}

func levelFromEnv(fallback zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return fallback
	}
}

func noColorFromEnv() bool {
	raw := strings.TrimSpace(os.Getenv(EnvLogNoColor))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return v
}
