// Package cors implements a relay middleware that answers CORS preflight
// requests and adds CORS headers to every other response.
package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Jack4Code/relay"
)

const (
	// AllOrigins allows any origin.
	AllOrigins = "*"
	// AllMethods allows any HTTP method.
	AllMethods = "*"
	// AllHeaders allows any request header.
	AllHeaders = "*"
	// NoOrigins allows no origin.
	NoOrigins = "NULL"
)

// Header names read and written by the middleware.
const (
	HeaderOrigin           = "Origin"
	HeaderRequestMethod    = "Access-Control-Request-Method"
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderMaxAge           = "Access-Control-Max-Age"
)

// Config holds CORS configuration. The allow-lists are comma separated, or
// one of the sentinels above.
type Config struct {
	// AllowedOrigins is matched exactly against the Origin header.
	AllowedOrigins string `toml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`

	// AllowedMethods is matched exactly against Access-Control-Request-Method.
	AllowedMethods string `toml:"allowed_methods" env:"CORS_ALLOWED_METHODS"`

	// AllowedHeaders is sent as is.
	AllowedHeaders string `toml:"allowed_headers" env:"CORS_ALLOWED_HEADERS"`

	AllowCredentials bool `toml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`

	// MaxAge in seconds; omitted from responses when nil.
	MaxAge *uint32 `toml:"max_age" env:"CORS_MAX_AGE"`
}

// DefaultConfig returns a permissive config for development.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:   AllOrigins,
		AllowedMethods:   AllMethods,
		AllowedHeaders:   AllHeaders,
		AllowCredentials: true,
	}
}

// clone returns a copy of c that shares no memory with it.
func (c Config) clone() Config {
	if c.MaxAge != nil {
		maxAge := *c.MaxAge
		c.MaxAge = &maxAge
	}
	return c
}

// IsOriginAllowed reports whether origin is in AllowedOrigins.
func (c Config) IsOriginAllowed(origin string) bool {
	if c.AllowedOrigins == "" || c.AllowedOrigins == NoOrigins {
		return false
	}
	if c.AllowedOrigins == AllOrigins {
		return true
	}
	return contains(c.AllowedOrigins, origin)
}

// IsMethodAllowed reports whether method is in AllowedMethods.
func (c Config) IsMethodAllowed(method string) bool {
	if c.AllowedMethods == "" {
		return false
	}
	if c.AllowedMethods == AllMethods {
		return true
	}
	return contains(c.AllowedMethods, method)
}

func contains(list, value string) bool {
	for _, entry := range strings.Split(list, ",") {
		if entry == value {
			return true
		}
	}
	return false
}

// Decorate sets the configured CORS headers on res. It does not look at the
// request, so every response gets the same headers.
func Decorate(res *relay.Response, cfg Config) *relay.Response {
	if res.Header == nil {
		res.Header = make(http.Header)
	}
	origin := cfg.AllowedOrigins
	if origin == "" {
		origin = NoOrigins
	}
	res.Header.Set(HeaderAllowOrigin, origin)
	res.Header.Set(HeaderAllowMethods, cfg.AllowedMethods)
	res.Header.Set(HeaderAllowHeaders, cfg.AllowedHeaders)
	res.Header.Set(HeaderAllowCredentials, strconv.FormatBool(cfg.AllowCredentials))
	if cfg.MaxAge != nil {
		res.Header.Set(HeaderMaxAge, strconv.FormatUint(uint64(*cfg.MaxAge), 10))
	}
	return res
}

// Preflight answers an OPTIONS request. The status is always 204; a denied or
// malformed preflight simply carries no CORS headers.
func Preflight(r *http.Request, cfg Config) *relay.Response {
	res, _ := preflight(r, cfg)
	return res
}

func preflight(r *http.Request, cfg Config) (*relay.Response, outcome) {
	res := relay.NoContent()

	if len(r.Header.Values(HeaderOrigin)) == 0 || len(r.Header.Values(HeaderRequestMethod)) == 0 {
		return res, notPreflight
	}
	origin := r.Header.Get(HeaderOrigin)
	method := r.Header.Get(HeaderRequestMethod)
	if origin == "" || method == "" {
		return res, notPreflight
	}

	if !cfg.IsOriginAllowed(origin) || !cfg.IsMethodAllowed(method) {
		return res, denied
	}

	res.Header.Set(HeaderAllowOrigin, origin)
	res.Header.Set(HeaderAllowMethods, method)
	res.Header.Set(HeaderAllowHeaders, cfg.AllowedHeaders)
	res.Header.Set(HeaderAllowCredentials, strconv.FormatBool(cfg.AllowCredentials))
	if cfg.MaxAge != nil {
		res.Header.Set(HeaderMaxAge, strconv.FormatUint(uint64(*cfg.MaxAge), 10))
	}
	return res, allowed
}

type outcome string

const (
	notPreflight outcome = "not_preflight"
	denied       outcome = "denied"
	allowed      outcome = "allowed"
)
