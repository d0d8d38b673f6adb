package main

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// newLogger returns a plain console logger writing to w. level must be one
// of the validated config levels.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "dashcore-cli").Logger()
}
