package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New constructs a zerolog logger for the service.  Level defaults to
// info when unparseable; format "console" switches from JSON to the
// human-readable writer for local development.
func New(level, format, env string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
		lvl = parsed
	}

	var out = zerolog.New(os.Stdout)
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return out.Level(lvl).With().
		Timestamp().
		Str("app", "hostel-allocation").
		Str("env", env).
		Logger()
}
