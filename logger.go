package relay

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog logger writing to w (stdout when nil) at the
// given level. Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Timing records when a request entered the chain. The Logger middleware
// stores it in the run's Extensions.
type Timing struct {
	Start time.Time
}

// Elapsed returns the time since the request entered the chain.
func (t Timing) Elapsed() time.Duration {
	return time.Since(t.Start)
}

// Logger logs every request with method, path, status and duration.
// 5xx responses are logged at error, 4xx at warn and the rest at debug.
// Health-check paths are skipped.
func Logger(logger zerolog.Logger) Middleware {
	return MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		if isHealthEndpoint(r.URL.Path) {
			return next.Run(r, ext)
		}

		timing := Timing{Start: time.Now()}
		Insert(ext, timing)

		res := next.Run(r, ext)

		var event *zerolog.Event
		switch {
		case res.StatusCode >= 500:
			event = logger.Error()
		case res.StatusCode >= 400:
			event = logger.Warn()
		default:
			event = logger.Debug()
		}

		event = event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", res.StatusCode).
			Dur("duration", timing.Elapsed())
		if id, ok := Get[RequestIDValue](ext); ok {
			event = event.Str("request_id", string(id))
		}
		if p, ok := Get[Principal](ext); ok {
			event = event.Str("user_id", p.UserID)
		}
		event.Msg("request completed")

		return res
	})
}

func isHealthEndpoint(path string) bool {
	switch path {
	case "/health", "/ready", "/metrics":
		return true
	}
	return false
}
