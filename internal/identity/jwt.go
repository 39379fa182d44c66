package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTResolver verifies HS256 bearer tokens issued by the identity service.
// The subject claim carries the user id.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver creates a resolver from the shared signing secret.
func NewJWTResolver(secret string) (*JWTResolver, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &JWTResolver{secret: []byte(secret)}, nil
}

var _ Resolver = (*JWTResolver)(nil)

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Resolve validates the token signature and expiry and extracts the identity.
// Any validation failure maps to ErrUnauthenticated; callers never see
// parser internals.
func (r *JWTResolver) Resolve(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrUnauthenticated
	}

	var c claims
	token, err := jwt.ParseWithClaims(credential, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrUnauthenticated
	}
	if c.Subject == "" {
		return Identity{}, ErrUnauthenticated
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
