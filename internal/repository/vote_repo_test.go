package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/models"
)

func TestVoteRepositoryCastMovesVoterBetweenSets(t *testing.T) {
	db := setupForumDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	question := seedQuestion(t, db, author.ID, "How do I tune sqlite?")
	target := VoteTarget{Type: models.ContentQuestion, ID: question.ID}

	outcome, err := repo.Cast(ctx, target, voter.ID, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, author.ID, outcome.AuthorID)
	require.Equal(t, models.VoteNone, outcome.Previous)
	require.Equal(t, models.VoteCounters{UpvoteCount: 1, VoteCount: 1}, outcome.Counters)

	outcome, err = repo.Cast(ctx, target, voter.ID, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, models.VoteUp, outcome.Previous)
	require.Equal(t, 1, outcome.Counters.UpvoteCount, "repeating a vote must not double count")

	outcome, err = repo.Cast(ctx, target, voter.ID, models.VoteDown)
	require.NoError(t, err)
	require.Equal(t, models.VoteCounters{DownvoteCount: 1, VoteCount: -1}, outcome.Counters)

	var stored models.Question
	require.NoError(t, db.First(&stored, question.ID).Error)
	require.Equal(t, -1, stored.VoteCount)
	require.Equal(t, 0, stored.UpvoteCount)
	require.Equal(t, 1, stored.DownvoteCount)

	direction, err := repo.VoteOf(ctx, target, voter.ID)
	require.NoError(t, err)
	require.Equal(t, models.VoteDown, direction)

	outcome, err = repo.Cast(ctx, target, voter.ID, models.VoteNone)
	require.NoError(t, err)
	require.Equal(t, models.VoteCounters{}, outcome.Counters)

	direction, err = repo.VoteOf(ctx, target, voter.ID)
	require.NoError(t, err)
	require.Equal(t, models.VoteNone, direction)

	var rows int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&rows).Error)
	require.Zero(t, rows)
}

func TestVoteRepositoryCastRejectsMissingOrDeletedTarget(t *testing.T) {
	db := setupForumDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	question := seedQuestion(t, db, author.ID, "Deleted question title")

	_, err := repo.Cast(ctx, VoteTarget{Type: models.ContentQuestion, ID: question.ID + 100}, voter.ID, models.VoteUp)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, db.Model(&models.Question{}).Where("id = ?", question.ID).Update("is_deleted", true).Error)
	_, err = repo.Cast(ctx, VoteTarget{Type: models.ContentQuestion, ID: question.ID}, voter.ID, models.VoteUp)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.Cast(ctx, VoteTarget{Type: "user", ID: author.ID}, voter.ID, models.VoteUp)
	require.Error(t, err)
}

func TestVoteRepositoryConcurrentVotersAreAllCounted(t *testing.T) {
	db := setupForumDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	question := seedQuestion(t, db, author.ID, "Concurrent voting question")
	target := VoteTarget{Type: models.ContentQuestion, ID: question.ID}

	voters := make([]models.User, 0, 8)
	for i := 0; i < 8; i++ {
		voters = append(voters, seedUser(t, db, fmt.Sprintf("voter%d", i)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(voters)*2)
	for i, voter := range voters {
		direction := models.VoteUp
		if i%4 == 0 {
			direction = models.VoteDown
		}
		wg.Add(1)
		go func(voterID uint, direction models.VoteDirection) {
			defer wg.Done()
			_, err := repo.Cast(ctx, target, voterID, direction)
			errs <- err
			_, err = repo.Cast(ctx, target, voterID, direction)
			errs <- err
		}(voter.ID, direction)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var stored models.Question
	require.NoError(t, db.First(&stored, question.ID).Error)
	require.Equal(t, 6, stored.UpvoteCount)
	require.Equal(t, 2, stored.DownvoteCount)
	require.Equal(t, 4, stored.VoteCount)
}

func TestVoteRepositoryVotesOfReturnsCallerDirections(t *testing.T) {
	db := setupForumDB(t)
	repo := NewVoteRepository(db)
	answers := NewAnswerRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	other := seedUser(t, db, "other")
	question := seedQuestion(t, db, author.ID, "Which answer is best?")
	first := seedAnswer(t, answers, question.ID, voter.ID)
	second := seedAnswer(t, answers, question.ID, other.ID)

	_, err := repo.Cast(ctx, VoteTarget{Type: models.ContentAnswer, ID: first.ID}, author.ID, models.VoteUp)
	require.NoError(t, err)
	_, err = repo.Cast(ctx, VoteTarget{Type: models.ContentAnswer, ID: second.ID}, author.ID, models.VoteDown)
	require.NoError(t, err)

	votes, err := repo.VotesOf(ctx, models.ContentAnswer, []uint{first.ID, second.ID}, author.ID)
	require.NoError(t, err)
	require.Equal(t, map[uint]models.VoteDirection{first.ID: models.VoteUp, second.ID: models.VoteDown}, votes)

	votes, err = repo.VotesOf(ctx, models.ContentAnswer, []uint{first.ID}, 0)
	require.NoError(t, err)
	require.Empty(t, votes)
}
