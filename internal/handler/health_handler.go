package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/forum-api/internal/config"
	"github.com/noah-isme/forum-api/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck checks one backing dependency such as the database or Redis.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Components  map[string]string `json:"components,omitempty"`
}

// HealthCheck reports service health. Any failing dependency marks the service
// degraded and answers 503 so load balancers stop routing to it.
func HealthCheck(cfg config.Config, checks ...DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if len(checks) > 0 {
			payload.Components = make(map[string]string, len(checks))
			ctx, cancel := context.WithTimeout(c.UserContext(), dependencyCheckTimeout)
			defer cancel()
			for _, check := range checks {
				if err := check.Check(ctx); err != nil {
					payload.Status = "degraded"
					payload.Components[check.Name] = err.Error()
					continue
				}
				payload.Components[check.Name] = "ok"
			}
		}

		if payload.Status != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    payload,
				Message: "service degraded",
			})
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
