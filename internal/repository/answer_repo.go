package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/models"
)

// AnswerFilter narrows answer listings.
type AnswerFilter struct {
	Page     int
	Limit    int
	AuthorID *uint
}

// AnswerRepository persists answers and owns the acceptance transition.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	FindByID(ctx context.Context, id uint) (models.Answer, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error)
	List(ctx context.Context, filter AnswerFilter) ([]models.Answer, int64, error)
	Edit(ctx context.Context, edit ContentEdit) (models.Answer, error)
	SoftDelete(ctx context.Context, removal ContentRemoval) error
	Accept(ctx context.Context, answerID, actorID uint, expectedVersion int, at time.Time) (models.Answer, models.Question, error)
	Unaccept(ctx context.Context, answerID uint, expectedVersion int, at time.Time) (models.Answer, models.Question, error)
	Revisions(ctx context.Context, id uint) ([]models.Revision, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository constructs a GORM-backed answer repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// Create inserts the answer and bumps the question's answer count. The question
// row is locked so one author cannot race two answers onto the same question.
func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question struct {
			ID uint
		}
		if err := lockRow(tx.Select("id"), "questions", answer.QuestionID, &question); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND author_id = ? AND is_deleted = ?", answer.QuestionID, answer.AuthorID, false).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateAnswer
		}

		if err := tx.Create(answer).Error; err != nil {
			return err
		}

		return tx.Model(&models.Question{}).
			Where("id = ?", answer.QuestionID).
			UpdateColumns(map[string]interface{}{
				"answer_count":     gorm.Expr("answer_count + ?", 1),
				"last_activity_at": answer.CreatedAt,
			}).Error
	})
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Preload("Author").First(answer, answer.ID).Error
}

func (r *answerRepository) FindByID(ctx context.Context, id uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("is_deleted = ?", false).
		First(&answer, id).Error; err != nil {
		return models.Answer{}, err
	}
	return answer, nil
}

// ListByQuestion returns live answers with the accepted one first, then by
// score, then oldest first.
func (r *answerRepository) ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("question_id = ? AND is_deleted = ?", questionID, false).
		Order("is_accepted DESC").
		Order("vote_count DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepository) List(ctx context.Context, filter AnswerFilter) ([]models.Answer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Answer{}).Where("is_deleted = ?", false)
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var answers []models.Answer
	if err := paginate(query, filter.Page, filter.Limit).
		Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Find(&answers).Error; err != nil {
		return nil, 0, err
	}
	return answers, total, nil
}

func (r *answerRepository) Edit(ctx context.Context, edit ContentEdit) (models.Answer, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyEdit(tx, models.ContentAnswer, edit)
	})
	if err != nil {
		return models.Answer{}, err
	}
	return r.FindByID(ctx, edit.ID)
}

// SoftDelete hides the answer, decrements the question's answer count and, when
// the answer was accepted, clears the question's acceptance in the same transaction.
func (r *answerRepository) SoftDelete(ctx context.Context, removal ContentRemoval) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answer models.Answer
		if err := lockRow(tx, "answers", removal.ID, &answer); err != nil {
			return err
		}

		var question models.Question
		if err := tx.Table("questions").
			Where("id = ?", answer.QuestionID).
			Take(&question).Error; err != nil {
			return err
		}

		if err := softDelete(tx, "answers", removal); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"answer_count": gorm.Expr("CASE WHEN answer_count > 0 THEN answer_count - 1 ELSE 0 END"),
		}
		if question.AcceptedAnswerID != nil && *question.AcceptedAnswerID == answer.ID {
			if err := tx.Model(&models.Answer{}).Where("id = ?", answer.ID).UpdateColumns(clearedAcceptance()).Error; err != nil {
				return err
			}
			updates["is_answered"] = false
			updates["accepted_answer_id"] = nil
			updates["version"] = gorm.Expr("version + 1")
		}

		return tx.Model(&models.Question{}).Where("id = ?", question.ID).UpdateColumns(updates).Error
	})
}

// Accept makes answerID the single accepted answer of its question. Any other
// answer carrying the flag is cleared first, and the question write is guarded
// by expectedVersion.
func (r *answerRepository) Accept(ctx context.Context, answerID, actorID uint, expectedVersion int, at time.Time) (models.Answer, models.Question, error) {
	var questionID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answer, question, err := lockAcceptance(tx, answerID)
		if err != nil {
			return err
		}
		if question.Version != expectedVersion {
			return ErrStaleVersion
		}
		questionID = question.ID

		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND id <> ? AND is_accepted = ?", question.ID, answer.ID, true).
			UpdateColumns(clearedAcceptance()).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Answer{}).
			Where("id = ?", answer.ID).
			UpdateColumns(map[string]interface{}{
				"is_accepted": true,
				"accepted_at": at,
				"accepted_by": actorID,
			}).Error; err != nil {
			return err
		}

		return bumpQuestionAcceptance(tx, question.ID, expectedVersion, map[string]interface{}{
			"is_answered":        true,
			"accepted_answer_id": answer.ID,
			"last_activity_at":   at,
		})
	})
	if err != nil {
		return models.Answer{}, models.Question{}, err
	}

	return r.reloadPair(ctx, answerID, questionID)
}

// Unaccept clears the acceptance of answerID. It fails with ErrNotAccepted when
// the question's accepted answer is a different one or none.
func (r *answerRepository) Unaccept(ctx context.Context, answerID uint, expectedVersion int, at time.Time) (models.Answer, models.Question, error) {
	var questionID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answer, question, err := lockAcceptance(tx, answerID)
		if err != nil {
			return err
		}
		if question.AcceptedAnswerID == nil || *question.AcceptedAnswerID != answer.ID {
			return ErrNotAccepted
		}
		if question.Version != expectedVersion {
			return ErrStaleVersion
		}
		questionID = question.ID

		if err := tx.Model(&models.Answer{}).
			Where("id = ?", answer.ID).
			UpdateColumns(clearedAcceptance()).Error; err != nil {
			return err
		}

		return bumpQuestionAcceptance(tx, question.ID, expectedVersion, map[string]interface{}{
			"is_answered":        false,
			"accepted_answer_id": nil,
			"last_activity_at":   at,
		})
	})
	if err != nil {
		return models.Answer{}, models.Question{}, err
	}

	return r.reloadPair(ctx, answerID, questionID)
}

func (r *answerRepository) Revisions(ctx context.Context, id uint) ([]models.Revision, error) {
	return listRevisions(ctx, r.db, models.ContentAnswer, id)
}

func (r *answerRepository) reloadPair(ctx context.Context, answerID, questionID uint) (models.Answer, models.Question, error) {
	answer, err := r.FindByID(ctx, answerID)
	if err != nil {
		return models.Answer{}, models.Question{}, err
	}
	var question models.Question
	if err := r.db.WithContext(ctx).Preload("Author").First(&question, questionID).Error; err != nil {
		return models.Answer{}, models.Question{}, err
	}
	return answer, question, nil
}

func lockAcceptance(tx *gorm.DB, answerID uint) (models.Answer, models.Question, error) {
	var answer models.Answer
	if err := tx.Where("id = ? AND is_deleted = ?", answerID, false).Take(&answer).Error; err != nil {
		return models.Answer{}, models.Question{}, err
	}

	var question models.Question
	if err := lockRow(tx, "questions", answer.QuestionID, &question); err != nil {
		return models.Answer{}, models.Question{}, err
	}
	return answer, question, nil
}

func bumpQuestionAcceptance(tx *gorm.DB, questionID uint, expectedVersion int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	result := tx.Model(&models.Question{}).
		Where("id = ? AND version = ?", questionID, expectedVersion).
		UpdateColumns(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}

func clearedAcceptance() map[string]interface{} {
	return map[string]interface{}{
		"is_accepted": false,
		"accepted_at": nil,
		"accepted_by": nil,
	}
}
