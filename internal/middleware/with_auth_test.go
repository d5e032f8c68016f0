package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/models"
)

func withCaller(id uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id != 0 {
			c.Locals(middleware.LocalUserID, id)
		}
		c.Locals(middleware.LocalUserRole, role)
		return c.Next()
	}
}

func TestWithAuthGate(t *testing.T) {
	cases := []struct {
		name   string
		id     uint
		role   string
		opts   middleware.AuthOptions
		status int
	}{
		{name: "member_posts", id: 10, role: "Member", opts: middleware.AuthOptions{Role: middleware.AuthRoleMember}, status: http.StatusNoContent},
		{name: "admin_posts_as_member", id: 1, role: models.RoleAdmin, opts: middleware.AuthOptions{Role: middleware.AuthRoleMember}, status: http.StatusNoContent},
		{name: "guest_account_cannot_post", id: 10, role: models.RoleGuest, opts: middleware.AuthOptions{Role: middleware.AuthRoleMember}, status: http.StatusForbidden},
		{name: "anonymous_cannot_post", opts: middleware.AuthOptions{Role: middleware.AuthRoleMember}, status: http.StatusUnauthorized},
		{name: "member_cannot_moderate", id: 10, role: models.RoleMember, opts: middleware.AuthOptions{Role: middleware.AuthRoleAdmin}, status: http.StatusForbidden},
		{name: "admin_moderates", id: 1, role: models.RoleAdmin, opts: middleware.AuthOptions{Role: middleware.AuthRoleAdmin}, status: http.StatusNoContent},
		{name: "signed_in_required", opts: middleware.AuthOptions{RequireUser: true}, status: http.StatusUnauthorized},
		{name: "guest_account_signed_in", id: 10, role: models.RoleGuest, opts: middleware.AuthOptions{RequireUser: true}, status: http.StatusNoContent},
		{name: "anonymous_reader", opts: middleware.AuthOptions{Role: middleware.AuthRoleAny}, status: http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(withCaller(tc.id, tc.role))
			app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusNoContent)
			}, tc.opts))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
