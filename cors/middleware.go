package cors

import (
	"net/http"

	"github.com/Jack4Code/relay"
	"github.com/rs/zerolog"
)

// Middleware handles CORS for a relay chain.
//
// OPTIONS requests are answered here and never reach the rest of the chain.
// Every other request is forwarded and the response it comes back with is
// decorated with the configured headers, whatever the request's Origin.
type Middleware struct {
	cfg    Config
	logger zerolog.Logger
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger logs each preflight decision at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Middleware) {
		m.logger = logger
	}
}

// New returns a Middleware enforcing cfg. cfg is copied and never modified,
// so one Middleware can serve concurrent runs.
func New(cfg Config, opts ...Option) *Middleware {
	m := &Middleware{cfg: cfg.clone(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns a copy of the middleware's configuration. Changing it does
// not affect the middleware.
func (m *Middleware) Config() Config {
	return m.cfg.clone()
}

// Handle implements relay.Middleware.
func (m *Middleware) Handle(r *http.Request, ext *relay.Extensions, next *relay.Next) *relay.Response {
	if r.Method == http.MethodOptions {
		res, result := preflight(r, m.cfg)
		m.logger.Debug().
			Str("origin", r.Header.Get(HeaderOrigin)).
			Str("method", r.Header.Get(HeaderRequestMethod)).
			Str("outcome", string(result)).
			Msg("cors preflight")
		return res
	}

	return Decorate(next.Run(r, ext), m.cfg)
}
