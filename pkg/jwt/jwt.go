package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the token claims the chat client cares about. The client
// never verifies signatures; the backend does that on every request.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Parse decodes a token without signature verification and returns its
// claims. Used to inspect identity and expiry of a stored token.
func Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckExpiry reports whether a stored token is still usable for
// opening a connection. A token without an exp claim is accepted.
func CheckExpiry(tokenString string, now time.Time) error {
	claims, err := Parse(tokenString)
	if err != nil {
		return err
	}
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
		return ErrExpiredToken
	}
	return nil
}
