package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/config"
	"github.com/noah-isme/forum-api/internal/handler"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler          *handler.AuthHandler
	UserHandler          *handler.UserHandler
	QuestionHandler      *handler.QuestionHandler
	AnswerHandler        *handler.AnswerHandler
	CommentHandler       *handler.CommentHandler
	NotificationHandler  *handler.NotificationHandler
	RealtimeHandler      *handler.RealtimeHandler
	AdminActivityHandler *handler.AdminActivityHandler
	AccountLookup        middleware.AccountLookup
	DependencyChecks     []handler.DependencyCheck
	Logger               zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1")
	api.Get("/health", handler.HealthCheck(cfg, deps.DependencyChecks...))

	guard := func(c *fiber.Ctx) error { return c.Next() }
	if deps.AccountLookup != nil {
		guard = middleware.AccountGuard(deps.AccountLookup, deps.Logger)
	}

	// Readers may be guests; mutations are gated per route.
	optional := []fiber.Handler{middleware.JWTOptional(cfg.JWTSecret), guard}
	// Every route in these groups needs a signed-in, non-banned caller.
	protected := []fiber.Handler{middleware.JWTProtected(cfg.JWTSecret), guard}

	voteLimit := middleware.RateLimit("votes", cfg.VoteRateLimit, time.Minute)
	authLimit := middleware.RateLimit("auth", cfg.AuthRateLimit, time.Minute)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth", optional...), authLimit)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", optional...))
	}

	if deps.QuestionHandler != nil {
		deps.QuestionHandler.Register(api.Group("/questions", optional...), voteLimit)
	}

	if deps.AnswerHandler != nil {
		deps.AnswerHandler.Register(api.Group("/answers", optional...), voteLimit)
	}

	if deps.CommentHandler != nil {
		deps.CommentHandler.Register(api.Group("/comments", optional...), voteLimit)
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", protected...))
	}

	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.Register(api.Group("/realtime", protected...))
	}

	if deps.AdminActivityHandler != nil {
		admin := api.Group("/admin", append(protected, middleware.RequireRole(middleware.AuthRoleAdmin))...)
		deps.AdminActivityHandler.Register(admin.Group("/activity"))
	}
}
