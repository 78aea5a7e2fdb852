package relay

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID on both request and response.
const RequestIDHeader = "X-Request-Id"

// RequestIDValue is the request ID stored in Extensions by RequestID.
type RequestIDValue string

// RequestID assigns every request an ID, reusing an incoming X-Request-Id
// when present. Downstream middleware see the ID on the request header and in
// Extensions; the response carries it back.
func RequestID() Middleware {
	return MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, id)
		}
		Insert(ext, RequestIDValue(id))

		res := next.Run(r, ext)
		res.Header.Set(RequestIDHeader, id)
		return res
	})
}
