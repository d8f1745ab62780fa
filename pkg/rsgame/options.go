package rsgame

import "github.com/rs/zerolog"

// options holds the construction- and kernel-time knobs every public
// constructor/operation in this package accepts via functional options.
// defaultOptions gives the default behavior: NaN propagates, nothing is
// logged, and epsilon is 1e-10.
type options struct {
	logger           zerolog.Logger
	ignoreIncomplete bool
	epsilon          float64
}

func defaultOptions() options {
	return options{
		logger:  zerolog.Nop(),
		epsilon: 1e-10,
	}
}

// Option configures a PayoffGame constructor or a deviation-payoff call.
type Option func(*options)

// WithLogger attaches a zerolog.Logger for construction-time diagnostics.
// The default is zerolog.Nop(): the core logs nothing unless asked to, and
// never holds a process-wide logger (see freeeve-polite-betrayal's
// internal/logger for the global-logger pattern this deliberately avoids).
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIgnoreIncomplete renormalizes each deviation-payoff column by its own
// observed weight mass, so partial profile coverage yields an unbiased
// estimate conditional on the rows actually present.
func WithIgnoreIncomplete(ignore bool) Option {
	return func(o *options) { o.ignoreIncomplete = ignore }
}

// WithEpsilon overrides the zero-handling constant added to every mixture
// entry before taking logs. The default (1e-10) is small enough not to
// perturb deviation payoffs beyond float64 noise on any profile the game
// can represent.
func WithEpsilon(eps float64) Option {
	return func(o *options) { o.epsilon = eps }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
