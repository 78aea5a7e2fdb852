package relay

import (
	"encoding/json"
	"net/http"
)

// Response is the value produced by a Router or by a short-circuiting
// Middleware. Header is mutable so outer middleware can decorate it on the
// way back up the chain.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse creates a response with the given status and optional body.
func NewResponse(statusCode int, body []byte) *Response {
	return &Response{
		StatusCode: statusCode,
		Header:     make(http.Header),
		Body:       body,
	}
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// JSON encodes data as the response body.
// If encoding fails a 500 is returned instead.
func JSON(statusCode int, data any) *Response {
	body, err := json.Marshal(data)
	if err != nil {
		return Error(http.StatusInternalServerError, "failed to encode response")
	}
	res := NewResponse(statusCode, append(body, '\n'))
	res.Header.Set("Content-Type", "application/json")
	return res
}

// Error returns a JSON response of the form {"error": message}.
func Error(statusCode int, message string) *Response {
	return JSON(statusCode, map[string]string{"error": message})
}

// Write copies the response onto w.
func (r *Response) Write(w http.ResponseWriter) error {
	for name, values := range r.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(r.StatusCode)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
