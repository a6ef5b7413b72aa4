package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process and returns the root logger.
// "development" or "dev" prints human-readable lines; anything else is JSON.
func Setup(environment, level string) zerolog.Logger {
	return SetupWithWriter(environment, level, os.Stdout)
}

// SetupWithWriter is Setup with an explicit destination.
func SetupWithWriter(environment, level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	env := strings.ToLower(environment)
	if env == "development" || env == "dev" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(w).With().Timestamp().Str("service", "crewtime").Logger().Level(lvl)
	log.Logger = logger
	return logger
}
