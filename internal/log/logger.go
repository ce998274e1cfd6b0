// Package log configures the process-wide structured logger. Grounded on
// the teacher pack's zerolog conventions (every session/job/generator
// operation logs with its id as a field rather than interpolating it into
// the message).
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the global logger.
type Config struct {
	Level  string    // "debug", "info", "warn", "error"; defaults to "info"
	Output io.Writer // defaults to os.Stdout
}

var (
	mu   sync.RWMutex
	base zerolog.Logger
)

func init() {
	Configure(Config{})
}

// Configure installs the global logger. Safe to call once at startup
// before any component logs.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	base = zerolog.New(writer).With().
		Timestamp().
		Str("component", "playcore").
		Logger()
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// With returns a child logger tagged with the given component name, for
// per-package loggers (e.g. "session", "transcode", "httpapi").
func With(component string) zerolog.Logger {
	return Logger().With().Str("subcomponent", component).Logger()
}
