package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/handler"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/validation"
)

func TestAnswerHandlerAcceptForwardsCaller(t *testing.T) {
	answers := &stubAnswers{}
	app := fiber.New()
	handler.NewAnswerHandler(answers, &stubComments{}, &stubVotes{}, zerolog.Nop()).
		Register(app.Group("/answers", withCaller(7, models.RoleMember)), nil)

	resp, body := perform(t, app, jsonRequest(http.MethodPost, "/answers/12/accept", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "answer accepted", body.Message)
	require.Equal(t, uint(12), answers.accepted)
	require.Equal(t, uint(7), answers.actor.ID)
}

func TestAnswerHandlerAcceptStaleWriteIsConflict(t *testing.T) {
	answers := &stubAnswers{err: service.ErrStaleWrite}
	app := fiber.New()
	handler.NewAnswerHandler(answers, &stubComments{}, &stubVotes{}, zerolog.Nop()).
		Register(app.Group("/answers", withCaller(7, models.RoleMember)), nil)

	resp, _ := perform(t, app, jsonRequest(http.MethodPost, "/answers/12/accept", nil))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAnswerHandlerVoteTargetsAnswers(t *testing.T) {
	votes := &stubVotes{}
	app := fiber.New()
	handler.NewAnswerHandler(&stubAnswers{}, &stubComments{}, votes, zerolog.Nop()).
		Register(app.Group("/answers", withCaller(7, models.RoleMember)), nil)

	resp, _ := perform(t, app, jsonRequest(http.MethodPost, "/answers/5/vote", dto.VoteRequest{VoteType: dto.VoteTypeRemove}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, models.ContentAnswer, votes.targetType)
	require.Equal(t, uint(5), votes.targetID)
	require.Equal(t, dto.VoteTypeRemove, votes.payload.VoteType)
}

func TestCommentHandlerCreate(t *testing.T) {
	comments := &stubComments{}
	app := fiber.New()
	handler.NewCommentHandler(comments, &stubVotes{}, zerolog.Nop()).
		Register(app.Group("/comments", withCaller(7, models.RoleMember)), nil)

	answerID := uint(4)
	resp, body := perform(t, app, jsonRequest(http.MethodPost, "/comments", dto.CommentCreateRequest{
		Content:  "Did you try errgroup for this one?",
		AnswerID: &answerID,
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)
	require.NotNil(t, comments.created)
	require.Equal(t, &answerID, comments.created.AnswerID)
	require.Nil(t, comments.created.QuestionID)
}

func TestCommentHandlerValidationDetails(t *testing.T) {
	comments := &stubComments{err: validation.NewError("parentId", "must belong to the same target")}
	app := fiber.New()
	handler.NewCommentHandler(comments, &stubVotes{}, zerolog.Nop()).
		Register(app.Group("/comments", withCaller(7, models.RoleMember)), nil)

	questionID := uint(1)
	parentID := uint(99)
	resp, body := perform(t, app, jsonRequest(http.MethodPost, "/comments", dto.CommentCreateRequest{
		Content:    "Replying to the wrong thread here.",
		QuestionID: &questionID,
		ParentID:   &parentID,
	}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation failed", body.Message)
	require.Len(t, body.Details, 1)
	require.Equal(t, "parentId", body.Details[0].Field)
}

func TestCommentHandlerVoteRequiresCaller(t *testing.T) {
	votes := &stubVotes{}
	app := fiber.New()
	handler.NewCommentHandler(&stubComments{}, votes, zerolog.Nop()).
		Register(app.Group("/comments", withCaller(0, "")), nil)

	resp, _ := perform(t, app, jsonRequest(http.MethodPost, "/comments/2/vote", dto.VoteRequest{VoteType: dto.VoteTypeUpvote}))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, votes.calls)
}
