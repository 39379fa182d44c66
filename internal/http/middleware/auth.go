package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docstore/internal/identity"
)

// IdentityLocalKey is the key under which the authenticated principal is
// stored in Fiber's context locals.
const IdentityLocalKey = "auth_identity"

// Auth resolves the Authorization bearer credential through the identity
// resolver and injects the principal. Resolution failure short-circuits
// with 401 before any service call.
func Auth(resolver identity.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		credential := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if credential == "" {
			return writeUnauthorized(c)
		}

		id, err := resolver.Resolve(c.UserContext(), credential)
		if err != nil {
			return writeUnauthorized(c)
		}

		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// CurrentIdentity extracts the authenticated principal from the context.
func CurrentIdentity(c *fiber.Ctx) (identity.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(identity.Identity)
	return id, ok
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func writeUnauthorized(c *fiber.Ctx) error {
	rid, _ := c.Locals(RequestIDLocalKey).(string)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"request_id": rid,
		"error": fiber.Map{
			"code":    "UNAUTHORIZED",
			"message": "missing or invalid credentials",
		},
	})
}
