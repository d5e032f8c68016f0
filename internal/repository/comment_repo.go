package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/models"
)

// CommentRepository persists comments on questions and answers.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id uint) (models.Comment, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]models.Comment, error)
	ListByAnswer(ctx context.Context, answerID uint) ([]models.Comment, error)
	Edit(ctx context.Context, edit ContentEdit) (models.Comment, error)
	SoftDelete(ctx context.Context, removal ContentRemoval) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository constructs a GORM-backed comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Author").First(comment, comment.ID).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uint) (models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("is_deleted = ?", false).
		First(&comment, id).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

func (r *commentRepository) ListByQuestion(ctx context.Context, questionID uint) ([]models.Comment, error) {
	return r.listWhere(ctx, "question_id = ?", questionID)
}

func (r *commentRepository) ListByAnswer(ctx context.Context, answerID uint) ([]models.Comment, error) {
	return r.listWhere(ctx, "answer_id = ?", answerID)
}

func (r *commentRepository) listWhere(ctx context.Context, condition string, id uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where(condition, id).
		Where("is_deleted = ?", false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Edit(ctx context.Context, edit ContentEdit) (models.Comment, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyEdit(tx, models.ContentComment, edit)
	})
	if err != nil {
		return models.Comment{}, err
	}
	return r.FindByID(ctx, edit.ID)
}

func (r *commentRepository) SoftDelete(ctx context.Context, removal ContentRemoval) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return softDelete(tx, "comments", removal)
	})
}
