package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// IsDev reports whether env selects development behavior (console logs, mock fallback default).
func IsDev(env string) bool { return env == "dev" || env == "development" }

// NewLogger returns a zerolog Logger writing to stdout.
// APP_ENV=dev (or development) uses a human-friendly console writer.
// Unknown levels fall back to info.
func NewLogger(env, level string) zerolog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(out io.Writer, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if IsDev(env) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "realestate-proxy").Logger()
}
