package relay

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// RateLimit rejects requests with 429 once the token bucket (r tokens per
// second, holding up to burst) is empty. The bucket is shared by every run
// of the chain.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return MiddlewareFunc(func(req *http.Request, ext *Extensions, next *Next) *Response {
		if !limiter.Allow() {
			res := Error(http.StatusTooManyRequests, "rate limit exceeded")
			if r > 0 {
				res.Header.Set("Retry-After", strconv.Itoa(int(math.Ceil(1/r))))
			}
			return res
		}
		return next.Run(req, ext)
	})
}
