package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/forum-api/internal/observability"
	"github.com/noah-isme/forum-api/internal/utils"
)

// RateLimit allows max requests per window for each caller of the named
// limiter. Signed-in callers are keyed by account so switching networks does
// not reset their budget; guests are keyed by IP.
func RateLimit(name string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := UserID(c); userID != 0 {
				return fmt.Sprintf("%s:user:%d", name, userID)
			}
			return fmt.Sprintf("%s:ip:%s", name, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			observability.RateLimitedTotal().WithLabelValues(name).Inc()
			return utils.Fail(c, fiber.StatusTooManyRequests, "too many requests, slow down", fiber.Map{
				"limiter": name,
				"limit":   max,
			})
		},
	})
}
