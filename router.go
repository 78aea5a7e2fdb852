package relay

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

// Router is the end of a chain. It receives whatever request the innermost
// middleware forwards and produces the response.
type Router interface {
	Dispatch(r *http.Request) *Response
}

// RouterFunc lets an ordinary function act as a Router.
type RouterFunc func(r *http.Request) *Response

// Dispatch calls f(r).
func (f RouterFunc) Dispatch(r *http.Request) *Response {
	return f(r)
}

// Handler takes context and request, returns a Response
type Handler func(ctx context.Context, r *http.Request) *Response

// Route represents an HTTP route
type Route struct {
	Method  string
	Path    string
	Handler Handler
}

// MuxRouter is a Router backed by gorilla/mux. Path matching and variable
// extraction are left entirely to mux.
type MuxRouter struct {
	mux *mux.Router
}

// NewMuxRouter registers routes on a fresh mux.Router.
func NewMuxRouter(routes ...Route) *MuxRouter {
	m := &MuxRouter{mux: mux.NewRouter()}
	for _, route := range routes {
		m.Handle(route)
	}
	return m
}

// Handle registers a single route.
func (m *MuxRouter) Handle(route Route) *MuxRouter {
	m.mux.Handle(route.Path, routeHandler(route.Handler)).Methods(route.Method)
	return m
}

// Get registers a GET route.
func (m *MuxRouter) Get(path string, h Handler) *MuxRouter {
	return m.Handle(Route{Method: http.MethodGet, Path: path, Handler: h})
}

// Post registers a POST route.
func (m *MuxRouter) Post(path string, h Handler) *MuxRouter {
	return m.Handle(Route{Method: http.MethodPost, Path: path, Handler: h})
}

// Dispatch finds the route matching r and calls its handler.
// Unknown paths get a 404 and known paths with the wrong method a 405.
func (m *MuxRouter) Dispatch(r *http.Request) *Response {
	var match mux.RouteMatch
	if !m.mux.Match(r, &match) {
		if errors.Is(match.MatchErr, mux.ErrMethodMismatch) {
			return Error(http.StatusMethodNotAllowed, "method not allowed")
		}
		return Error(http.StatusNotFound, "not found")
	}

	h, ok := match.Handler.(routeHandler)
	if !ok {
		return Error(http.StatusNotFound, "not found")
	}

	r = mux.SetURLVars(r, match.Vars)
	return h(r.Context(), r)
}

// PathParam returns the named path variable captured by MuxRouter.
func PathParam(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// routeHandler lets a Handler sit in the mux route table. MuxRouter never
// serves through it; Dispatch calls the Handler directly.
type routeHandler Handler

func (h routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(r.Context(), r).Write(w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
