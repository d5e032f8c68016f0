package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/forum-api/internal/models"
)

// VoteTarget identifies a votable record.
type VoteTarget struct {
	Type string
	ID   uint
}

// VoteOutcome is the state of a target after a vote was applied.
type VoteOutcome struct {
	AuthorID uint
	Previous models.VoteDirection
	Current  models.VoteDirection
	Counters models.VoteCounters
}

// VoteRepository owns the votes ledger and the counters derived from it.
type VoteRepository interface {
	Cast(ctx context.Context, target VoteTarget, voterID uint, direction models.VoteDirection) (VoteOutcome, error)
	VoteOf(ctx context.Context, target VoteTarget, voterID uint) (models.VoteDirection, error)
	AuthorOf(ctx context.Context, target VoteTarget) (uint, error)
	VotesOf(ctx context.Context, targetType string, targetIDs []uint, voterID uint) (map[uint]models.VoteDirection, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository constructs the vote ledger repository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Cast moves voterID into the set named by direction, removing it from the
// other set, and rewrites the target's counters from the ledger. The target row
// stays locked for the whole transaction so concurrent voters serialise per target.
func (r *voteRepository) Cast(ctx context.Context, target VoteTarget, voterID uint, direction models.VoteDirection) (VoteOutcome, error) {
	table, ok := models.ContentTable(target.Type)
	if !ok {
		return VoteOutcome{}, fmt.Errorf("unknown vote target %q", target.Type)
	}

	var outcome VoteOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct {
			AuthorID uint
		}
		if err := lockRow(tx.Select("author_id"), table, target.ID, &row); err != nil {
			return err
		}
		outcome.AuthorID = row.AuthorID

		scope := tx.Model(&models.Vote{}).Where("target_type = ? AND target_id = ? AND voter_id = ?", target.Type, target.ID, voterID)

		var existing models.Vote
		err := scope.Session(&gorm.Session{}).Take(&existing).Error
		switch {
		case err == nil:
			outcome.Previous = existing.Direction
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome.Previous = models.VoteNone
		default:
			return err
		}

		if direction == models.VoteNone {
			if err := scope.Session(&gorm.Session{}).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
		} else {
			now := time.Now()
			vote := models.Vote{
				TargetType: target.Type,
				TargetID:   target.ID,
				VoterID:    voterID,
				Direction:  direction,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "target_type"}, {Name: "target_id"}, {Name: "voter_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
			}).Create(&vote).Error; err != nil {
				return err
			}
		}

		counters, err := tallyVotes(tx, target)
		if err != nil {
			return err
		}

		if err := tx.Table(table).Where("id = ?", target.ID).UpdateColumns(map[string]interface{}{
			"upvote_count":   counters.UpvoteCount,
			"downvote_count": counters.DownvoteCount,
			"vote_count":     counters.VoteCount,
		}).Error; err != nil {
			return err
		}

		outcome.Current = direction
		outcome.Counters = counters
		return nil
	})
	if err != nil {
		return VoteOutcome{}, err
	}

	return outcome, nil
}

func tallyVotes(tx *gorm.DB, target VoteTarget) (models.VoteCounters, error) {
	var rows []struct {
		Direction models.VoteDirection
		Total     int
	}
	if err := tx.Model(&models.Vote{}).
		Select("direction, COUNT(*) AS total").
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Group("direction").
		Scan(&rows).Error; err != nil {
		return models.VoteCounters{}, err
	}

	var counters models.VoteCounters
	for _, row := range rows {
		switch row.Direction {
		case models.VoteUp:
			counters.UpvoteCount = row.Total
		case models.VoteDown:
			counters.DownvoteCount = row.Total
		}
	}
	counters.VoteCount = counters.UpvoteCount - counters.DownvoteCount
	return counters, nil
}

func (r *voteRepository) VoteOf(ctx context.Context, target VoteTarget, voterID uint) (models.VoteDirection, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND voter_id = ?", target.Type, target.ID, voterID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VoteNone, nil
	}
	if err != nil {
		return models.VoteNone, err
	}
	return vote.Direction, nil
}

// AuthorOf returns the author of a live target.
func (r *voteRepository) AuthorOf(ctx context.Context, target VoteTarget) (uint, error) {
	table, ok := models.ContentTable(target.Type)
	if !ok {
		return 0, fmt.Errorf("unknown vote target %q", target.Type)
	}

	var row struct {
		AuthorID uint
	}
	if err := r.db.WithContext(ctx).Table(table).
		Select("author_id").
		Where("id = ? AND is_deleted = ?", target.ID, false).
		Take(&row).Error; err != nil {
		return 0, err
	}
	return row.AuthorID, nil
}

func (r *voteRepository) VotesOf(ctx context.Context, targetType string, targetIDs []uint, voterID uint) (map[uint]models.VoteDirection, error) {
	result := make(map[uint]models.VoteDirection, len(targetIDs))
	if len(targetIDs) == 0 || voterID == 0 {
		return result, nil
	}

	var votes []models.Vote
	if err := r.db.WithContext(ctx).
		Where("target_type = ? AND voter_id = ? AND target_id IN ?", targetType, voterID, targetIDs).
		Find(&votes).Error; err != nil {
		return nil, err
	}

	for _, vote := range votes {
		result[vote.TargetID] = vote.Direction
	}
	return result, nil
}
