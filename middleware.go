package relay

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrNextReused is the panic value raised when a Next is run more than once.
var ErrNextReused = errors.New("relay: next already run")

// Middleware intercepts a request on its way to the Router.
//
// A Middleware may replace the request before forwarding it with next.Run,
// may inspect or modify the response that comes back, or may return its own
// response without calling next at all. next must be run at most once.
//
// Values that need to travel down the chain without appearing in the request
// go in ext.
type Middleware interface {
	Handle(r *http.Request, ext *Extensions, next *Next) *Response
}

// MiddlewareFunc lets an ordinary function act as a Middleware.
type MiddlewareFunc func(r *http.Request, ext *Extensions, next *Next) *Response

// Handle calls f(r, ext, next).
func (f MiddlewareFunc) Handle(r *http.Request, ext *Extensions, next *Next) *Response {
	return f(r, ext, next)
}

// Next is the remainder of a chain: the middleware still to run followed by
// the Router. Each Next can be run once; running it hands a fresh Next over
// the rest of the chain to the current middleware.
type Next struct {
	router      Router
	middlewares []Middleware
	logger      *zerolog.Logger
	used        atomic.Bool
}

func newNext(router Router, middlewares []Middleware, logger *zerolog.Logger) *Next {
	return &Next{
		router:      router,
		middlewares: middlewares,
		logger:      logger,
	}
}

// Run forwards r to the next middleware, or to the Router when none remain.
// It panics with ErrNextReused if called twice.
//
// The response it returns is never nil and always has a Header map, so the
// caller can decorate it directly. A nil response from further down becomes
// a 500.
func (n *Next) Run(r *http.Request, ext *Extensions) *Response {
	if !n.used.CompareAndSwap(false, true) {
		panic(ErrNextReused)
	}

	var res *Response
	if len(n.middlewares) == 0 {
		res = n.router.Dispatch(r)
	} else {
		current, rest := n.middlewares[0], n.middlewares[1:]
		res = current.Handle(r, ext, newNext(n.router, rest, n.logger))
	}

	if res == nil {
		n.logger.Error().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("remaining", len(n.middlewares)).
			Msg("chain produced no response")
		return Error(http.StatusInternalServerError, "internal server error")
	}
	if res.Header == nil {
		res.Header = make(http.Header)
	}
	return res
}

// Remaining reports how many middleware are left before the Router.
func (n *Next) Remaining() int {
	return len(n.middlewares)
}
