package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/utils"
)

// AuthHandler exposes registration, login and token refresh.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register binds the credential routes. limit may be nil.
func (h *AuthHandler) Register(router fiber.Router, limit fiber.Handler) {
	if limit == nil {
		limit = passThrough
	}
	signedIn := middleware.AuthOptions{RequireUser: true}

	router.Post("/register", limit, h.register)
	router.Post("/login", limit, h.login)
	router.Post("/refresh", limit, h.refresh)
	router.Get("/me", middleware.WithAuth(h.me, signedIn))
	router.Put("/password", middleware.WithAuth(h.changePassword, signedIn))
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Register(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, "account created", response)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "logged in", response)
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	var payload dto.RefreshRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Refresh(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "token refreshed", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Me(requestContext(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "current user", user)
}

func (h *AuthHandler) changePassword(c *fiber.Ctx) error {
	var payload dto.ChangePasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.ChangePassword(requestContext(c), middleware.UserID(c), payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "password updated", nil)
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}
