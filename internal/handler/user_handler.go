package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/utils"
)

// UserHandler serves profiles, the user directory and moderation actions.
type UserHandler struct {
	users     service.UserService
	avatars   service.AvatarService
	questions service.QuestionService
	answers   service.AnswerService
	logger    zerolog.Logger
}

// NewUserHandler constructs a user handler.
func NewUserHandler(users service.UserService, avatars service.AvatarService, questions service.QuestionService, answers service.AnswerService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:     users,
		avatars:   avatars,
		questions: questions,
		answers:   answers,
		logger:    logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register binds user routes. Reads are public, mutations require a caller.
func (h *UserHandler) Register(router fiber.Router) {
	member := middleware.AuthOptions{Role: middleware.AuthRoleAny, RequireUser: true}
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Get("", h.list)
	router.Get("/:id", h.profile)
	router.Get("/:id/questions", h.questionsByUser)
	router.Get("/:id/answers", h.answersByUser)
	router.Put("/:id", middleware.WithAuth(h.update, member))
	router.Post("/:id/avatar", middleware.WithAuth(h.uploadAvatar, member))
	router.Put("/:id/ban", middleware.WithAuth(h.ban, admin))
	router.Put("/:id/unban", middleware.WithAuth(h.unban, admin))
	router.Put("/:id/role", middleware.WithAuth(h.setRole, admin))
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	response, err := h.users.List(requestContext(c), dto.UserListQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Role:   c.Query("role"),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "users", response)
}

func (h *UserHandler) profile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.users.Profile(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user profile", response)
}

func (h *UserHandler) questionsByUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	page, _ := parseQueryInt(c, "page")
	limit, _ := parseQueryInt(c, "limit")

	response, err := h.questions.ListByAuthor(requestContext(c), actorFromContext(c), id, page, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user questions", response)
}

func (h *UserHandler) answersByUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	page, _ := parseQueryInt(c, "page")
	limit, _ := parseQueryInt(c, "limit")

	response, err := h.answers.ListByAuthor(requestContext(c), actorFromContext(c), id, page, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user answers", response)
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.UserUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.users.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile updated", response)
}

func (h *UserHandler) uploadAvatar(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	file, err := c.FormFile("avatar")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "avatar file is required")
	}

	response, err := h.avatars.Upload(requestContext(c), actorFromContext(c), id, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "avatar updated", response)
}

func (h *UserHandler) ban(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.BanRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.users.Ban(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user banned", response)
}

func (h *UserHandler) unban(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.users.Unban(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "user unbanned", response)
}

func (h *UserHandler) setRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.RoleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.users.SetRole(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "role updated", response)
}
