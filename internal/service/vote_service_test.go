package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

func TestVoteSwitchAndRemove(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	voter := f.member(t, "voter")
	question := f.ask(t, asker)

	resp, err := f.votes.Vote(ctx, voter, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
	require.NoError(t, err)
	require.Equal(t, 1, resp.VoteCount)
	require.Equal(t, "upvote", *resp.UserVote)

	resp, err = f.votes.Vote(ctx, voter, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeDownvote})
	require.NoError(t, err)
	require.Equal(t, -1, resp.VoteCount)
	require.Equal(t, 0, resp.Upvotes)
	require.Equal(t, 1, resp.Downvotes)

	resp, err = f.votes.Vote(ctx, voter, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeRemove})
	require.NoError(t, err)
	require.Equal(t, 0, resp.VoteCount)
	require.Nil(t, resp.UserVote)
	require.Equal(t, models.VoteNone, f.votes.VoteOf(ctx, voter, models.ContentQuestion, question.ID))
}

func TestVoteNotifiesOnNewUpvoteOnly(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	voter := f.member(t, "voter")
	question := f.ask(t, asker)

	for i := 0; i < 2; i++ {
		_, err := f.votes.Vote(ctx, voter, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
		require.NoError(t, err)
	}
	_, err := f.votes.Vote(ctx, voter, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeDownvote})
	require.NoError(t, err)

	require.Equal(t, []string{models.NotificationVoteReceived}, f.notifier.types())
	event := f.notifier.last()
	require.Equal(t, asker.ID, event.RecipientID)
	require.Equal(t, question.ID, *event.QuestionID)

	_, err = f.votes.Vote(ctx, asker, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
	require.NoError(t, err)
	require.Len(t, f.notifier.types(), 1)
}

func TestVoteRejectsSelfVotingWhenDisabled(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	asker := f.member(t, "asker")
	question := f.ask(t, asker)

	strict := NewVoteService(repository.NewVoteRepository(f.db), f.notifier, validation.New(), false, testLogger())
	_, err := strict.Vote(ctx, asker, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = strict.Vote(ctx, f.member(t, "voter"), models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
	require.NoError(t, err)
}

func TestVoteValidatesInput(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	question := f.ask(t, f.member(t, "asker"))

	_, err := f.votes.Vote(ctx, Actor{}, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
	require.ErrorIs(t, err, ErrUnauthenticated)

	voter := f.member(t, "voter")
	_, err = f.votes.Vote(ctx, voter, models.ContentQuestion, question.ID, dto.VoteRequest{VoteType: "sideways"})
	require.True(t, validation.IsValidationError(err))

	_, err = f.votes.Vote(ctx, voter, models.ContentAnswer, 999, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
	require.ErrorIs(t, err, ErrNotFound)
}
