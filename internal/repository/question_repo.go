package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/models"
)

// Question list orderings.
const (
	QuestionSortNewest     = "newest"
	QuestionSortOldest     = "oldest"
	QuestionSortVotes      = "votes"
	QuestionSortViews      = "views"
	QuestionSortUnanswered = "unanswered"
)

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	Page     int
	Limit    int
	Sort     string
	Tag      string
	Search   string
	Status   string
	AuthorID *uint
}

// QuestionRepository persists questions.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	FindByID(ctx context.Context, id uint) (models.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]models.Question, int64, error)
	Edit(ctx context.Context, edit ContentEdit) (models.Question, error)
	SetStatus(ctx context.Context, id uint, status string, at time.Time) (models.Question, error)
	SetBounty(ctx context.Context, id, offeredBy uint, amount int, expiresAt time.Time) (models.Question, error)
	SoftDelete(ctx context.Context, removal ContentRemoval) error
	IncrementViews(ctx context.Context, id uint) error
	Revisions(ctx context.Context, id uint) ([]models.Revision, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository constructs a GORM-backed question repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Author").First(question, question.ID).Error
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("is_deleted = ?", false).
		First(&question, id).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.Question, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{}).Where("is_deleted = ?", false)

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if tag := strings.TrimSpace(strings.ToLower(filter.Tag)); tag != "" {
		query = query.Where("tags LIKE ? ESCAPE '\\'", "%|"+escapeLike(tag)+"|%")
	}
	if search := strings.TrimSpace(strings.ToLower(filter.Search)); search != "" {
		like := "%" + escapeLike(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}
	if filter.Sort == QuestionSortUnanswered {
		query = query.Where("answer_count = ?", 0)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []models.Question
	if err := paginate(query, filter.Page, filter.Limit).
		Preload("Author").
		Order(questionOrder(filter.Sort)).
		Order("id DESC").
		Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func questionOrder(sort string) string {
	switch sort {
	case QuestionSortOldest:
		return "created_at ASC"
	case QuestionSortVotes:
		return "vote_count DESC"
	case QuestionSortViews:
		return "views DESC"
	default:
		return "created_at DESC"
	}
}

func (r *questionRepository) Edit(ctx context.Context, edit ContentEdit) (models.Question, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if edit.Fields == nil {
			edit.Fields = map[string]interface{}{}
		}
		edit.Fields["last_activity_at"] = edit.At
		edit.Fields["version"] = gorm.Expr("version + 1")
		return applyEdit(tx, models.ContentQuestion, edit)
	})
	if err != nil {
		return models.Question{}, err
	}
	return r.FindByID(ctx, edit.ID)
}

func (r *questionRepository) SetStatus(ctx context.Context, id uint, status string, at time.Time) (models.Question, error) {
	result := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"status":           status,
			"version":          gorm.Expr("version + 1"),
			"last_activity_at": at,
		})
	if result.Error != nil {
		return models.Question{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *questionRepository) SetBounty(ctx context.Context, id, offeredBy uint, amount int, expiresAt time.Time) (models.Question, error) {
	result := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"bounty_amount":     amount,
			"bounty_expires_at": expiresAt,
			"bounty_offered_by": offeredBy,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return models.Question{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *questionRepository) SoftDelete(ctx context.Context, removal ContentRemoval) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return softDelete(tx, "questions", removal)
	})
}

func (r *questionRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *questionRepository) Revisions(ctx context.Context, id uint) ([]models.Revision, error) {
	return listRevisions(ctx, r.db, models.ContentQuestion, id)
}

func listRevisions(ctx context.Context, db *gorm.DB, contentType string, id uint) ([]models.Revision, error) {
	var revisions []models.Revision
	if err := db.WithContext(ctx).
		Where("content_type = ? AND content_id = ?", contentType, id).
		Order("created_at ASC").
		Order("id ASC").
		Find(&revisions).Error; err != nil {
		return nil, err
	}
	return revisions, nil
}
