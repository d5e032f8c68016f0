package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/utils"
)

// QuestionHandler serves the question endpoints and their nested collections.
type QuestionHandler struct {
	questions service.QuestionService
	answers   service.AnswerService
	comments  service.CommentService
	votes     service.VoteService
	logger    zerolog.Logger
}

// NewQuestionHandler constructs a question handler.
func NewQuestionHandler(questions service.QuestionService, answers service.AnswerService, comments service.CommentService, votes service.VoteService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		answers:   answers,
		comments:  comments,
		votes:     votes,
		logger:    logger.With().Str("component", "question_handler").Logger(),
	}
}

// Register binds question routes. voteLimit may be nil.
func (h *QuestionHandler) Register(router fiber.Router, voteLimit fiber.Handler) {
	if voteLimit == nil {
		voteLimit = passThrough
	}
	member := middleware.AuthOptions{Role: middleware.AuthRoleMember}
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Get("", h.list)
	router.Post("", middleware.WithAuth(h.create, member))
	router.Get("/:id", h.detail)
	router.Put("/:id", middleware.WithAuth(h.update, member))
	router.Delete("/:id", middleware.WithAuth(h.delete, member))
	router.Post("/:id/vote", middleware.WithAuth(voteLimit, member), h.vote)
	router.Put("/:id/status", middleware.WithAuth(h.setStatus, admin))
	router.Post("/:id/bounty", middleware.WithAuth(h.offerBounty, member))
	router.Get("/:id/answers", h.listAnswers)
	router.Get("/:id/comments", h.listComments)
	router.Get("/:id/revisions", h.revisions)
}

func (h *QuestionHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	response, err := h.questions.List(requestContext(c), actorFromContext(c), dto.QuestionListQuery{
		Page:   page,
		Limit:  limit,
		Sort:   c.Query("sort"),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "questions", response)
}

func (h *QuestionHandler) create(c *fiber.Ctx) error {
	var payload dto.QuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.questions.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, "question created", response)
}

func (h *QuestionHandler) detail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := actorFromContext(c)
	response, err := h.questions.Detail(requestContext(c), actor, id, viewerKey(c, actor))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "question", response)
}

func (h *QuestionHandler) update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.QuestionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.questions.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "question updated", response)
}

func (h *QuestionHandler) delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.DeleteRequest
	if err := parseBody(c, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.questions.Delete(requestContext(c), actorFromContext(c), id, payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "question deleted", nil)
}

func (h *QuestionHandler) vote(c *fiber.Ctx) error {
	return castVote(c, h.votes, h.logger, models.ContentQuestion)
}

func (h *QuestionHandler) setStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.QuestionStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.questions.SetStatus(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "question status updated", response)
}

func (h *QuestionHandler) offerBounty(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.BountyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.questions.OfferBounty(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "bounty offered", response)
}

func (h *QuestionHandler) listAnswers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	answers, err := h.answers.ListByQuestion(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "answers", answers)
}

func (h *QuestionHandler) listComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	comments, err := h.comments.ListByQuestion(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "comments", comments)
}

func (h *QuestionHandler) revisions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	revisions, err := h.questions.Revisions(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "revisions", revisions)
}

// viewerKey identifies a reader for view de-duplication.
func viewerKey(c *fiber.Ctx, actor service.Actor) string {
	if actor.Authenticated() {
		return "user:" + strconv.FormatUint(uint64(actor.ID), 10)
	}
	return "ip:" + c.IP()
}

func castVote(c *fiber.Ctx, votes service.VoteService, logger zerolog.Logger, targetType string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.VoteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := votes.Vote(requestContext(c), actorFromContext(c), targetType, id, payload)
	if err != nil {
		return respondError(c, logger, err)
	}
	return utils.SendSuccess(c, "vote recorded", response)
}
