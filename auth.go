package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userIDKey contextKey = "userID"

// Principal is the authenticated caller, stored in Extensions by RequireAuth
// and BasicAuth.
type Principal struct {
	UserID string
	Method string // "bearer" or "basic"
}

// RequireAuth creates middleware that validates JWT tokens from the Authorization header.
// It expects the header format: "Authorization: Bearer <token>"
//
// If the token is valid, the caller is stored in Extensions as a Principal and
// the user ID is added to the request context. If the token is invalid or
// missing, the chain stops with a 401 Unauthorized response.
//
// Usage:
//
//	chain := relay.New(router).
//	    With(relay.RequireAuth("your-secret-key")).
//	    Build()
func RequireAuth(secret string) Middleware {
	return MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			return Error(http.StatusUnauthorized, "missing authorization header")
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return Error(http.StatusUnauthorized, "invalid authorization format")
		}

		userID, err := ValidateJWT(parts[1], secret)
		if err != nil {
			return Error(http.StatusUnauthorized, "invalid token")
		}

		Insert(ext, Principal{UserID: userID, Method: "bearer"})
		r = r.WithContext(WithUserID(r.Context(), userID))
		return next.Run(r, ext)
	})
}

// GenerateJWT creates a signed JWT token for the given user ID.
// The token includes standard claims (subject, issued at, expiration).
//
// Example:
//
//	token, err := relay.GenerateJWT("user123", "secret", 24*time.Hour)
func GenerateJWT(userID string, secret string, expiration time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateJWT parses and validates a JWT token string.
// It verifies the signature and expiration and returns the "sub" claim.
func ValidateJWT(tokenString string, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", errors.New("invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("missing user ID in token")
	}

	return subject, nil
}

// WithUserID adds a user ID to the request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts the user ID from the request context.
// Route handlers behind RequireAuth or BasicAuth can use it, since they see
// the request but not the chain's Extensions.
//
// Example:
//
//	func MyHandler(ctx context.Context, r *http.Request) *relay.Response {
//	    userID, ok := relay.GetUserID(ctx)
//	    if !ok {
//	        return relay.Error(500, "user not found")
//	    }
//	    // Use userID...
//	}
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
