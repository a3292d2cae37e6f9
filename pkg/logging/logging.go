// Package logging builds the zerolog loggers used by the scrollmarks
// commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a configured level name onto a zerolog level. An empty
// name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "off", "disabled", "none":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
}

// Options control New.
type Options struct {
	Level string
	// JSON disables the console writer.
	JSON bool
	// NoColor strips ANSI sequences from console output.
	NoColor bool
}

// New returns a logger writing to w. Console output uses a short time
// format; JSON output is left untouched for machine consumers.
func New(w io.Writer, opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if !opts.JSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
			NoColor:    opts.NoColor,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Stderr is New on os.Stderr with colour only when stderr is a terminal.
func Stderr(level string) (zerolog.Logger, error) {
	return New(os.Stderr, Options{Level: level, NoColor: !isTerminal(os.Stderr)})
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
