package relay

import (
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost defines the computational cost of the bcrypt algorithm.
const bcryptCost = 12

// HashPassword generates a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies that a plaintext password matches a bcrypt hash.
// Returns nil if the password is correct.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// BasicAuth authenticates requests with HTTP Basic credentials checked against
// bcrypt hashes keyed by username. Failures stop the chain with a 401 and a
// WWW-Authenticate challenge for realm.
func BasicAuth(realm string, hashes map[string]string) Middleware {
	challenge := "Basic realm=" + strconv.Quote(realm)
	return MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		user, pass, ok := r.BasicAuth()
		if !ok {
			return unauthorized(challenge, "missing credentials")
		}
		hash, known := hashes[user]
		if !known || CheckPassword(pass, hash) != nil {
			return unauthorized(challenge, "invalid credentials")
		}

		Insert(ext, Principal{UserID: user, Method: "basic"})
		r = r.WithContext(WithUserID(r.Context(), user))
		return next.Run(r, ext)
	})
}

func unauthorized(challenge, message string) *Response {
	res := Error(http.StatusUnauthorized, message)
	res.Header.Set("WWW-Authenticate", challenge)
	return res
}
