// Package logger holds the process-wide zerolog logger.
//
// Call Init once from main, then Get or Component anywhere else.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Pretty switches to coloured console output for local development.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is attached to every entry as the "service" field when set.
	Service string
}

var (
	mu          sync.RWMutex
	once        sync.Once
	instance    zerolog.Logger
	initialized bool
)

// Init builds the singleton logger. Only the first call has any effect.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		ctx := zerolog.New(out).
			Level(ParseLevel(opts.Level)).
			With().
			Timestamp()
		if opts.Service != "" {
			ctx = ctx.Str("service", opts.Service)
		}

		mu.Lock()
		instance = ctx.Logger()
		initialized = true
		mu.Unlock()
	})
	return Get()
}

// Get returns the singleton logger. Panics if Init has not been called yet.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		panic("logger: Get() called before Init()")
	}
	return instance
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset tears down the singleton so that the next Init call rebuilds it.
// Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	instance = zerolog.Logger{}
	initialized = false
}

// ParseLevel maps a level name to a zerolog.Level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
