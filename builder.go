package relay

import (
	"errors"
	"net/http"
	"slices"

	"github.com/rs/zerolog"
)

// ErrBuilderConsumed is the panic value raised when a Builder is used after
// Build or Run.
var ErrBuilderConsumed = errors.New("relay: builder already built")

// Builder collects middleware in front of a Router.
//
// Middleware run in the order they were attached: the first one attached
// sees the request first and the response last.
//
//	res := relay.New(router).
//		With(relay.RequestID()).
//		With(cors.New(cors.DefaultConfig())).
//		Run(req)
type Builder struct {
	router      Router
	middlewares []Middleware
	logger      zerolog.Logger
	built       bool
}

// New returns a Builder with no middleware attached.
func New(router Router) *Builder {
	return &Builder{
		router: router,
		logger: zerolog.Nop(),
	}
}

// With attaches a middleware.
func (b *Builder) With(m Middleware) *Builder {
	b.checkUnbuilt()
	b.middlewares = append(b.middlewares, m)
	return b
}

// WithFunc attaches a function as a middleware.
func (b *Builder) WithFunc(f func(r *http.Request, ext *Extensions, next *Next) *Response) *Builder {
	return b.With(MiddlewareFunc(f))
}

// WithLogger sets the logger the chain reports contract violations to.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.checkUnbuilt()
	b.logger = logger
	return b
}

// Build freezes the attached middleware into a Chain. The Builder cannot be
// used afterwards.
func (b *Builder) Build() *Chain {
	b.checkUnbuilt()
	b.built = true
	return &Chain{
		router:      b.router,
		middlewares: slices.Clip(slices.Clone(b.middlewares)),
		logger:      b.logger,
	}
}

// Run builds the chain and sends r through it once.
func (b *Builder) Run(r *http.Request) *Response {
	return b.Build().Run(r)
}

func (b *Builder) checkUnbuilt() {
	if b.built {
		panic(ErrBuilderConsumed)
	}
}

// Chain is an immutable middleware stack in front of a Router. A Chain may
// serve any number of concurrent runs; each run has its own Extensions and
// its own Next cursors.
type Chain struct {
	router Router
	// middlewares is stored outermost-first; Next consumes it from the front,
	// so attachment order is run order without reversing.
	middlewares []Middleware
	logger      zerolog.Logger
}

// Run sends r through every middleware and, unless one of them answers
// first, the Router. It always returns a response: a nil from the Router or
// a middleware is logged and replaced by a 500.
func (c *Chain) Run(r *http.Request) *Response {
	return newNext(c.router, c.middlewares, &c.logger).Run(r, NewExtensions())
}

// Len reports the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// ServeHTTP runs the chain and writes its response to w.
func (c *Chain) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := c.Run(r)
	if err := res.Write(w); err != nil {
		c.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to write response")
	}
}
