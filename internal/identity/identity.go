package identity

import (
	"context"
	"errors"
)

// Package identity adapts the external identity service to the application.
// Resolution happens before any document operation; a failed resolution
// short-circuits with Unauthorized at the boundary.

// ErrUnauthenticated is returned when a credential cannot be resolved to a user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated principal a credential resolves to.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// Resolver resolves a bearer credential to a user identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}
