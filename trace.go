package solve

import (
	"io"

	"github.com/rs/zerolog"
)

// Tracer mirrors gps's SolveParameters.TraceLogger: solve internals log
// through it unconditionally, and whether anything is listening is entirely
// the caller's choice. A nil *Tracer is valid and silent.
type Tracer struct {
	log zerolog.Logger
}

// NewTracer returns a Tracer writing structured, leveled events to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{log: zerolog.New(w).With().Timestamp().Logger()}
}

func (t *Tracer) solving(strategy, root string) {
	if t == nil {
		return
	}
	t.log.Info().Str("strategy", strategy).Str("root", root).Msg("invoking external solver")
}

func (t *Tracer) solved(label string, count int) {
	if t == nil {
		return
	}
	t.log.Info().Str("phase", label).Int("packages", count).Msg("phase solved")
}

func (t *Tracer) unsat(label string, reasons int) {
	if t == nil {
		return
	}
	t.log.Warn().Str("phase", label).Int("reasons", reasons).Msg("external solver reported unsatisfiable")
}
