package relay

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Recover turns a panic anywhere further down the chain into a 500 response.
// Attach it first so it wraps everything else.
func Recover(logger zerolog.Logger) Middleware {
	return MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) (res *Response) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().
					Str("error", fmt.Sprintf("%v", rec)).
					Str("stack", string(debug.Stack())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				res = Error(http.StatusInternalServerError, "internal server error")
			}
		}()
		return next.Run(r, ext)
	})
}
