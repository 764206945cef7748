// Package logging builds the zerolog loggers used by the CLI and HTTP server.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssargent/packetwire/pkg/config"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "PACKETWIRE_LOG_LEVEL"

// New returns a logger writing to w. Console format is human readable; json
// emits one object per line.
func New(cfg config.Logging, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := cfg.Level
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = zerolog.InfoLevel
	}

	out := w
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "packetwire").Logger()
}

// ParseLevel maps a level name to a zerolog level. It accepts everything
// zerolog.ParseLevel does plus "warning", "off" and "none"; empty means info.
func ParseLevel(raw string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zerolog.InfoLevel, true
	case "warning":
		return zerolog.WarnLevel, true
	case "off", "none":
		return zerolog.Disabled, true
	}

	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
