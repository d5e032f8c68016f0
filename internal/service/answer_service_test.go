package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
)

func TestAnswerCreateNotifiesQuestionAuthor(t *testing.T) {
	f := newForum(t)
	asker := f.member(t, "asker")
	helper := f.member(t, "helper")
	question := f.ask(t, asker)

	answer := f.answer(t, helper, question.ID)
	require.Equal(t, question.ID, answer.QuestionID)
	require.Equal(t, []string{models.NotificationAnswerReceived}, f.notifier.types())
	require.Equal(t, asker.ID, f.notifier.last().RecipientID)

	detail, err := f.questions.Detail(context.Background(), asker, question.ID, "")
	require.NoError(t, err)
	require.Equal(t, 1, detail.AnswerCount)
	require.Len(t, detail.Answers, 1)
}

func TestAnswerCreateRejectsDuplicatesAndClosedQuestions(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	helper := f.member(t, "helper")
	admin := f.admin(t, "moderator")
	question := f.ask(t, asker)

	f.answer(t, helper, question.ID)
	_, err := f.answers.Create(ctx, helper, dto.AnswerCreateRequest{
		QuestionID: question.ID,
		Content:    "A second answer from the same author is not allowed.",
	})
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.questions.SetStatus(ctx, admin, question.ID, dto.QuestionStatusRequest{Status: models.QuestionStatusClosed})
	require.NoError(t, err)

	other := f.member(t, "latecomer")
	_, err = f.answers.Create(ctx, other, dto.AnswerCreateRequest{
		QuestionID: question.ID,
		Content:    "This question is closed so this should be rejected.",
	})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.answers.Create(ctx, Actor{}, dto.AnswerCreateRequest{QuestionID: question.ID, Content: "guest content that is long enough"})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAcceptKeepsSingleAcceptedAnswer(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	first := f.answer(t, f.member(t, "first"), f.ask(t, asker).ID)
	questionID := first.QuestionID
	second := f.answer(t, f.member(t, "second"), questionID)

	result, err := f.answers.Accept(ctx, asker, first.ID)
	require.NoError(t, err)
	require.True(t, result.Answer.IsAccepted)
	require.True(t, result.Question.IsAnswered)
	require.Equal(t, first.ID, *result.Question.AcceptedAnswer)

	result, err = f.answers.Accept(ctx, asker, second.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, *result.Question.AcceptedAnswer)

	answers, err := f.answers.ListByQuestion(ctx, asker, questionID)
	require.NoError(t, err)
	accepted := 0
	for _, answer := range answers {
		if answer.IsAccepted {
			accepted++
			require.Equal(t, second.ID, answer.ID)
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, second.ID, answers[0].ID)
}

func TestAcceptIsIdempotentAndNotifiesOnce(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	helper := f.member(t, "helper")
	answer := f.answer(t, helper, f.ask(t, asker).ID)

	_, err := f.answers.Accept(ctx, asker, answer.ID)
	require.NoError(t, err)
	_, err = f.answers.Accept(ctx, asker, answer.ID)
	require.NoError(t, err)

	accepted := 0
	for _, kind := range f.notifier.types() {
		if kind == models.NotificationAnswerAccepted {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, helper.ID, f.notifier.last().RecipientID)
}

func TestAcceptRequiresQuestionAuthor(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	helper := f.member(t, "helper")
	admin := f.admin(t, "moderator")
	answer := f.answer(t, helper, f.ask(t, asker).ID)

	_, err := f.answers.Accept(ctx, helper, answer.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.answers.Accept(ctx, admin, answer.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.answers.Accept(ctx, Actor{}, answer.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.answers.Accept(ctx, asker, answer.ID+100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptOwnAnswerSkipsNotification(t *testing.T) {
	f := newForum(t)
	asker := f.member(t, "asker")
	answer := f.answer(t, asker, f.ask(t, asker).ID)

	_, err := f.answers.Accept(context.Background(), asker, answer.ID)
	require.NoError(t, err)
	require.Empty(t, f.notifier.types())
}

func TestUnacceptRequiresAcceptedAnswer(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	helper := f.member(t, "helper")
	accepted := f.answer(t, helper, f.ask(t, asker).ID)
	other := f.answer(t, f.member(t, "other"), accepted.QuestionID)

	_, err := f.answers.Accept(ctx, asker, accepted.ID)
	require.NoError(t, err)

	_, err = f.answers.Unaccept(ctx, asker, other.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	result, err := f.answers.Unaccept(ctx, asker, accepted.ID)
	require.NoError(t, err)
	require.False(t, result.Answer.IsAccepted)
	require.False(t, result.Question.IsAnswered)
	require.Nil(t, result.Question.AcceptedAnswer)
	require.Equal(t, models.NotificationAnswerUnaccepted, f.notifier.last().Type)

	_, err = f.answers.Unaccept(ctx, asker, accepted.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAnswerUpdateAndAdminRemoval(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	helper := f.member(t, "helper")
	admin := f.admin(t, "moderator")
	answer := f.answer(t, helper, f.ask(t, asker).ID)

	_, err := f.answers.Update(ctx, helper, answer.ID, dto.ContentUpdateRequest{Content: answer.Content})
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.answers.Update(ctx, asker, answer.ID, dto.ContentUpdateRequest{Content: "Someone else trying to rewrite the answer."})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := f.answers.Update(ctx, helper, answer.ID, dto.ContentUpdateRequest{
		Content: "Use errgroup.WithContext, then cancel happens on the first error.",
		Reason:  "clarify",
	})
	require.NoError(t, err)
	require.True(t, updated.IsEdited)

	revisions, err := f.answers.Revisions(ctx, answer.ID)
	require.NoError(t, err)
	require.Len(t, revisions, 1)

	require.NoError(t, f.answers.Delete(ctx, admin, answer.ID, dto.DeleteRequest{Reason: "spam"}))
	require.Equal(t, models.NotificationContentRemoved, f.notifier.last().Type)
	require.Len(t, f.activity.entries, 1)
	require.Equal(t, ActionContentRemoved, f.activity.entries[0].Action)

	_, err = f.answers.Get(ctx, helper, answer.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
