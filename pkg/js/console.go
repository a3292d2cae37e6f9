package js

import (
	"github.com/rs/zerolog"
)

// consolePrinter routes console.log, console.warn and console.error to the
// engine's logger.
type consolePrinter struct {
	log zerolog.Logger
}

func (p *consolePrinter) Log(s string) {
	p.log.Info().Str("source", "console").Msg(s)
}

func (p *consolePrinter) Warn(s string) {
	p.log.Warn().Str("source", "console").Msg(s)
}

func (p *consolePrinter) Error(s string) {
	p.log.Error().Str("source", "console").Msg(s)
}
