package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the middleware registration pipeline.
type Config struct {
	AppName      string
	AllowOrigins string
	Logger       *zerolog.Logger
}

// Register attaches the middleware shared by every route: panic recovery,
// correlation ids, metrics, access log and CORS.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}
	origins := strings.TrimSpace(cfg.AllowOrigins)
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			requestLogger.Error().
				Interface("panic", e).
				Str(LocalCorrelationID, GetCorrelationID(c)).
				Str("path", c.Path()).
				Msg("recovered from panic")
		},
	}))
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency} ${locals:correlation_id}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: strings.Join([]string{
			"Origin", "Content-Type", "Accept", "Authorization", HeaderCorrelationID, HeaderRequestID,
		}, ", "),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: strings.Join([]string{
			HeaderCorrelationID, fiber.HeaderRetryAfter, "X-RateLimit-Limit", "X-RateLimit-Remaining",
		}, ", "),
	}))
	if cfg.AppName != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Set("X-Application", cfg.AppName)
			return c.Next()
		})
	}
}
