package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the process-wide logger.
type Config struct {
	Level      zerolog.Level
	TimeFormat string
	Output     io.Writer
	Pretty     bool
}

// Setup configures the global zerolog logger and returns it. Pretty output
// is for development; production logs JSON lines.
func Setup(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = &Config{Level: zerolog.InfoLevel}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zerolog.TimeFieldFormat = timeFormat
	log.Logger = zerolog.New(out).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
	return log.Logger
}
