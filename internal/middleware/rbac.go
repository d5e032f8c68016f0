package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/utils"
)

var roleRank = map[string]int{
	models.RoleGuest:  0,
	models.RoleMember: 1,
	models.RoleAdmin:  2,
}

// Role returns the caller's role, or guest when the request is anonymous.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalUserRole).(string)
	role = strings.ToLower(strings.TrimSpace(role))
	if _, ok := roleRank[role]; !ok || UserID(c) == 0 {
		return models.RoleGuest
	}
	return role
}

// HasRole reports whether the caller ranks at least as high as minimum.
// Admins pass every member check; guests pass only guest checks.
func HasRole(c *fiber.Ctx, minimum string) bool {
	need, ok := roleRank[strings.ToLower(strings.TrimSpace(minimum))]
	if !ok {
		return false
	}
	return roleRank[Role(c)] >= need
}

// RequireRole rejects callers ranked below minimum. Anonymous callers get 401.
func RequireRole(minimum string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if !HasRole(c, minimum) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return c.Next()
	}
}
