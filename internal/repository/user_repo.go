package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/models"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Page   int
	Limit  int
	Search string
	Role   string
}

// UserStats aggregates a user's visible contributions.
type UserStats struct {
	Questions       int64
	Answers         int64
	AcceptedAnswers int64
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (models.User, error)
	Stats(ctx context.Context, id uint) (UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = ? OR email = ?", strings.ToLower(username), strings.ToLower(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if search := strings.TrimSpace(strings.ToLower(filter.Search)); search != "" {
		like := "%" + escapeLike(search) + "%"
		query = query.Where("(LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(bio) LIKE ? ESCAPE '\\')", like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := paginate(query, filter.Page, filter.Limit).
		Order("reputation DESC").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (models.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return models.User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *userRepository) Stats(ctx context.Context, id uint) (UserStats, error) {
	var stats UserStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Question{}).
		Where("author_id = ? AND is_deleted = ?", id, false).
		Count(&stats.Questions).Error; err != nil {
		return UserStats{}, err
	}
	if err := db.Model(&models.Answer{}).
		Where("author_id = ? AND is_deleted = ?", id, false).
		Count(&stats.Answers).Error; err != nil {
		return UserStats{}, err
	}
	if err := db.Model(&models.Answer{}).
		Where("author_id = ? AND is_deleted = ? AND is_accepted = ?", id, false, true).
		Count(&stats.AcceptedAnswers).Error; err != nil {
		return UserStats{}, err
	}
	return stats, nil
}
