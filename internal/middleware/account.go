package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/utils"
)

// AccountLookup loads the stored account for an authenticated caller.
type AccountLookup func(ctx context.Context, id uint) (models.User, error)

// AccountGuard re-checks the stored account behind a token on every request.
// Banned accounts are rejected and the role local is refreshed so role changes
// apply before the token expires. Guests pass through untouched.
func AccountGuard(lookup AccountLookup, logger zerolog.Logger) fiber.Handler {
	guardLogger := logger.With().Str("component", "account_guard").Logger()

	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == 0 {
			return c.Next()
		}

		account, err := lookup(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return utils.SendError(c, fiber.StatusUnauthorized, "account no longer exists")
			}
			guardLogger.Error().Err(err).Uint("user_id", userID).Str("correlation_id", GetCorrelationID(c)).Msg("account lookup failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
		if account.IsBanned {
			return utils.SendError(c, fiber.StatusForbidden, "account is banned: "+account.BanReason)
		}

		c.Locals(LocalUserRole, account.Role)
		c.Locals(LocalUsername, account.Username)
		return c.Next()
	}
}
