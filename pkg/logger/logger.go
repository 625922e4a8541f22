// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config for logger
type Config struct {
	Level  string // debug, info, warn, error
	Format string // "console" or "json"
	Output io.Writer
}

// Init sets the global logger and level
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel parses a string level, defaulting to info
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// For returns a sub-logger tagged with the component name
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
