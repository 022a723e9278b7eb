package middleware

import (
	"strings"

	"microloan/internal/core/domain"
	"microloan/internal/core/guard"
	"microloan/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by Guard
const (
	LocalEmail = "email"
	LocalRole  = "role"
)

// credential reads the bearer token, falling back to the access_token cookie
func credential(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token
		}
	}
	return c.Cookies("access_token")
}

// Guard runs g against the request credential. On success the principal is
// stored in the user context and in Locals.
func Guard(g guard.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, err := g(c.UserContext(), credential(c))
		if err != nil {
			return response.FromError(c, err)
		}

		c.SetUserContext(ctx)
		if p, ok := guard.PrincipalFrom(ctx); ok {
			c.Locals(LocalEmail, p.Email)
			c.Locals(LocalRole, string(p.Role))
		}
		return c.Next()
	}
}

// Principal returns the caller attached by Guard
func Principal(c *fiber.Ctx) domain.Principal {
	p, _ := guard.PrincipalFrom(c.UserContext())
	return p
}
