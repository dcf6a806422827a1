package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development gets a human-readable console
// writer, everything else emits JSON lines on stderr.
func New(environment, level string) zerolog.Logger {
	return newWithWriter(os.Stderr, environment, level)
}

func newWithWriter(w io.Writer, environment, level string) zerolog.Logger {
	if strings.EqualFold(environment, "development") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "lookboard-enrichment").
		Logger()
}

// ParseLevel maps a config value onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}
