// Package finance is the bond calculation engine: cash-flow schedules for
// American (bullet) bonds with grace periods, TCEA, Macaulay duration,
// convexity, present-value pricing and the TREA/IRR solver.
//
// An Engine holds no mutable state. Every method works on its arguments and
// returns freshly allocated results, so one Engine may serve any number of
// goroutines.
package finance

import (
	"github.com/rs/zerolog"
)

// Engine carries the precision configuration and logger for all
// calculations.
type Engine struct {
	prec Precision
	log  zerolog.Logger
}

type Option func(*Engine)

// WithLogger routes solver diagnostics to l.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l.With().Str("component", "finance").Logger()
	}
}

// NewEngine validates prec and returns an engine using it.
func NewEngine(prec Precision, opts ...Option) (*Engine, error) {
	if err := prec.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{prec: prec, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Default returns an engine with DefaultPrecision and no logging.
func Default() *Engine {
	return &Engine{prec: DefaultPrecision(), log: zerolog.Nop()}
}

func (e *Engine) Precision() Precision {
	return e.prec
}
