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

// CommentHandler serves comment mutations. Listing lives on the parent resources.
type CommentHandler struct {
	comments service.CommentService
	votes    service.VoteService
	logger   zerolog.Logger
}

// NewCommentHandler constructs a comment handler.
func NewCommentHandler(comments service.CommentService, votes service.VoteService, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		votes:    votes,
		logger:   logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register binds comment routes. voteLimit may be nil.
func (h *CommentHandler) Register(router fiber.Router, voteLimit fiber.Handler) {
	if voteLimit == nil {
		voteLimit = passThrough
	}
	member := middleware.AuthOptions{Role: middleware.AuthRoleMember}

	router.Post("", middleware.WithAuth(h.create, member))
	router.Put("/:id", middleware.WithAuth(h.update, member))
	router.Delete("/:id", middleware.WithAuth(h.delete, member))
	router.Post("/:id/vote", middleware.WithAuth(voteLimit, member), h.vote)
}

func (h *CommentHandler) create(c *fiber.Ctx) error {
	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.comments.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, "comment created", response)
}

func (h *CommentHandler) update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.ContentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.comments.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "comment updated", response)
}

func (h *CommentHandler) delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.DeleteRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.comments.Delete(requestContext(c), actorFromContext(c), id, payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "comment deleted", nil)
}

func (h *CommentHandler) vote(c *fiber.Ctx) error {
	return castVote(c, h.votes, h.logger, models.ContentComment)
}
