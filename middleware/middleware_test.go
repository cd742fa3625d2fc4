package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saafsaksham-system/models"
)

func newGatewayApp(token string) *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware(token))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestGatewayAuthMiddleware(t *testing.T) {
	app := newGatewayApp("s3cret")

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer s3cret", fiber.StatusOK},
		{"wrong token", "Bearer nope", fiber.StatusUnauthorized},
		{"missing header", "", fiber.StatusUnauthorized},
		{"missing bearer prefix", "s3cret", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ping", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestUserContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		return c.JSON(fiber.Map{
			"id":    c.Locals("user_id"),
			"name":  c.Locals("user_name"),
			"roles": roles,
		})
	})

	// Without X-User-ID the request is rejected.
	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-User-ID", "auth0|abc")
	req.Header.Set("X-User-Roles", "citizen, verifier")
	req.Header.Set("X-User-Name", "Asha")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	app.Get("/verify", RequireRole(models.RoleVerifier), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	makeReq := func(roles string) int {
		req := httptest.NewRequest("GET", "/verify", nil)
		req.Header.Set("X-User-ID", "auth0|abc")
		req.Header.Set("X-User-Roles", roles)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, makeReq("verifier"))
	assert.Equal(t, fiber.StatusOK, makeReq("citizen,verifier"))
	assert.Equal(t, fiber.StatusForbidden, makeReq("citizen"))
	assert.Equal(t, fiber.StatusForbidden, makeReq(""))

	// Admin passes every role gate.
	assert.Equal(t, fiber.StatusOK, makeReq("admin"))
}
