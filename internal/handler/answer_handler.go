package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/utils"
)

// AnswerHandler serves answers, acceptance and answer comments.
type AnswerHandler struct {
	answers  service.AnswerService
	comments service.CommentService
	votes    service.VoteService
	logger   zerolog.Logger
}

// NewAnswerHandler constructs an answer handler.
func NewAnswerHandler(answers service.AnswerService, comments service.CommentService, votes service.VoteService, logger zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{
		answers:  answers,
		comments: comments,
		votes:    votes,
		logger:   logger.With().Str("component", "answer_handler").Logger(),
	}
}

// Register binds answer routes. voteLimit may be nil.
func (h *AnswerHandler) Register(router fiber.Router, voteLimit fiber.Handler) {
	if voteLimit == nil {
		voteLimit = passThrough
	}
	member := middleware.AuthOptions{Role: middleware.AuthRoleMember}

	router.Post("", middleware.WithAuth(h.create, member))
	router.Get("/:id", h.get)
	router.Put("/:id", middleware.WithAuth(h.update, member))
	router.Delete("/:id", middleware.WithAuth(h.delete, member))
	router.Post("/:id/vote", middleware.WithAuth(voteLimit, member), h.vote)
	router.Post("/:id/accept", middleware.WithAuth(h.accept, member))
	router.Post("/:id/unaccept", middleware.WithAuth(h.unaccept, member))
	router.Get("/:id/comments", h.listComments)
	router.Get("/:id/revisions", h.revisions)
}

func (h *AnswerHandler) create(c *fiber.Ctx) error {
	var payload dto.AnswerCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.answers.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, "answer created", response)
}

func (h *AnswerHandler) get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.answers.Get(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "answer", response)
}

func (h *AnswerHandler) update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.ContentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.answers.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "answer updated", response)
}

func (h *AnswerHandler) delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.DeleteRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.answers.Delete(requestContext(c), actorFromContext(c), id, payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "answer deleted", nil)
}

func (h *AnswerHandler) vote(c *fiber.Ctx) error {
	return castVote(c, h.votes, h.logger, models.ContentAnswer)
}

func (h *AnswerHandler) accept(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.answers.Accept(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "answer accepted", response)
}

func (h *AnswerHandler) unaccept(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.answers.Unaccept(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "answer unaccepted", response)
}

func (h *AnswerHandler) listComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	comments, err := h.comments.ListByAnswer(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "comments", comments)
}

func (h *AnswerHandler) revisions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	revisions, err := h.answers.Revisions(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "revisions", revisions)
}
