package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"saafsaksham-system/models"
)

// UserContextMiddleware extracts the identity the Gateway resolved from the
// external auth provider: X-User-ID (stable subject id), X-User-Roles and
// X-User-Name. Secured routes without a user id are rejected.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Warn().Str("path", c.Path()).Msg("user context: X-User-ID missing on secured route")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)
		c.Locals("user_name", c.Get("X-User-Name"))

		return c.Next()
	}
}

// RequireRole guards a route group: the caller must carry at least one of
// the given roles. Admin always passes.
func RequireRole(allowed ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		for _, have := range roles {
			if have == string(models.RoleAdmin) {
				return c.Next()
			}
			for _, want := range allowed {
				if have == string(want) {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient role for this operation",
		})
	}
}

// HasRole reports whether the request context carries the given role.
func HasRole(c *fiber.Ctx, role models.UserRole) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		if r == string(role) {
			return true
		}
	}
	return false
}
