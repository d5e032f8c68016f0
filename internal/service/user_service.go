package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

// UserService exposes profile and moderation use-cases.
type UserService interface {
	List(ctx context.Context, query dto.UserListQuery) (dto.UserListResponse, error)
	Profile(ctx context.Context, actor Actor, id uint) (dto.UserProfileResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	Ban(ctx context.Context, actor Actor, id uint, payload dto.BanRequest) (dto.UserResponse, error)
	Unban(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error)
	SetRole(ctx context.Context, actor Actor, id uint, payload dto.RoleRequest) (dto.UserResponse, error)
	Account(ctx context.Context, id uint) (models.User, error)
}

type userService struct {
	repo      repository.UserRepository
	notifier  Notifier
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewUserService constructs a user service.
func NewUserService(repo repository.UserRepository, notifier Notifier, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		notifier:  notifier,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

func (s *userService) List(ctx context.Context, query dto.UserListQuery) (dto.UserListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.UserListResponse{}, err
	}

	page, limit := dto.NormalizePage(query.Page, query.Limit, 20, 100)
	users, total, err := s.repo.List(ctx, repository.UserFilter{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(query.Search),
		Role:   query.Role,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.NewUserResponse(user, false))
	}

	return dto.UserListResponse{
		Users: items,
		Pagination: dto.UserPagination{
			Pagination: dto.NewPagination(page, limit, total),
			TotalUsers: total,
		},
	}, nil
}

func (s *userService) Profile(ctx context.Context, actor Actor, id uint) (dto.UserProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.UserProfileResponse{}, translate(err, "user")
	}
	stats, err := s.repo.Stats(ctx, id)
	if err != nil {
		return dto.UserProfileResponse{}, err
	}

	private := actor.Authenticated() && (actor.ID == id || actor.IsAdmin())
	return dto.UserProfileResponse{
		User: dto.NewUserResponse(user, private),
		Stats: dto.UserStats{
			Questions:       stats.Questions,
			Answers:         stats.Answers,
			AcceptedAnswers: stats.AcceptedAnswers,
		},
	}, nil
}

func (s *userService) Update(ctx context.Context, actor Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}
	if err := authorizeMutation(id, actor); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, translate(err, "user")
	}

	fields := map[string]interface{}{}
	if payload.Username != nil {
		username := strings.TrimSpace(*payload.Username)
		if !strings.EqualFold(username, user.Username) {
			taken, err := s.repo.ExistsByUsernameOrEmail(ctx, username, "")
			if err != nil {
				return dto.UserResponse{}, err
			}
			if taken {
				return dto.UserResponse{}, kindError(ErrConflict, "username %s is already taken", username)
			}
		}
		if username != user.Username {
			fields["username"] = username
		}
	}
	if payload.Bio != nil {
		bio := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Bio))
		if bio != user.Bio {
			fields["bio"] = bio
		}
	}
	if len(fields) == 0 {
		return dto.UserResponse{}, kindError(ErrConflict, "no changes to apply")
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return dto.UserResponse{}, translate(err, "user")
	}
	return dto.NewUserResponse(updated, true), nil
}

func (s *userService) Ban(ctx context.Context, actor Actor, id uint, payload dto.BanRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}
	target, err := s.moderationTarget(ctx, actor, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if target.IsAdmin() {
		return dto.UserResponse{}, kindError(ErrForbidden, "admins cannot be banned")
	}

	reason := strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason))
	now := s.now()
	updated, err := s.repo.Update(ctx, id, map[string]interface{}{
		"is_banned":  true,
		"ban_reason": reason,
		"banned_at":  now,
		"banned_by":  actor.ID,
	})
	if err != nil {
		return dto.UserResponse{}, translate(err, "user")
	}

	s.logger.Info().Uint("user_id", id).Uint("admin_id", actor.ID).Msg("user banned")
	s.afterModeration(ctx, actor, updated, ActionUserBanned, NotificationEvent{
		Type:   models.NotificationAccountBanned,
		Reason: reason,
	}, map[string]interface{}{"reason": reason})

	return dto.NewUserResponse(updated, true), nil
}

func (s *userService) Unban(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error) {
	target, err := s.moderationTarget(ctx, actor, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if !target.IsBanned {
		return dto.UserResponse{}, kindError(ErrInvalidState, "user is not banned")
	}

	updated, err := s.repo.Update(ctx, id, map[string]interface{}{
		"is_banned":  false,
		"ban_reason": "",
		"banned_at":  nil,
		"banned_by":  nil,
	})
	if err != nil {
		return dto.UserResponse{}, translate(err, "user")
	}

	s.logger.Info().Uint("user_id", id).Uint("admin_id", actor.ID).Msg("user unbanned")
	s.afterModeration(ctx, actor, updated, ActionUserUnbanned, NotificationEvent{
		Type: models.NotificationAccountUnbanned,
	}, map[string]interface{}{"previous_reason": target.BanReason})

	return dto.NewUserResponse(updated, true), nil
}

func (s *userService) SetRole(ctx context.Context, actor Actor, id uint, payload dto.RoleRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}
	role := normalizeRole(payload.Role)
	if !models.ValidRole(role) {
		return dto.UserResponse{}, validation.NewError("role", "must be one of guest, member, admin")
	}
	if actor.ID == id {
		return dto.UserResponse{}, kindError(ErrForbidden, "admins cannot change their own role")
	}
	target, err := s.moderationTarget(ctx, actor, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if role == target.Role {
		return dto.UserResponse{}, kindError(ErrConflict, "user already has role %s", role)
	}

	updated, err := s.repo.Update(ctx, id, map[string]interface{}{"role": role})
	if err != nil {
		return dto.UserResponse{}, translate(err, "user")
	}

	s.logger.Info().Uint("user_id", id).Str("role", role).Msg("user role changed")
	s.afterModeration(ctx, actor, updated, ActionUserRoleChanged, NotificationEvent{
		Type: models.NotificationRoleChanged,
		Role: role,
	}, map[string]interface{}{"from": target.Role, "to": role})

	return dto.NewUserResponse(updated, true), nil
}

func (s *userService) Account(ctx context.Context, id uint) (models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.User{}, translate(err, "user")
	}
	return user, nil
}

func (s *userService) moderationTarget(ctx context.Context, actor Actor, id uint) (models.User, error) {
	if !actor.Authenticated() {
		return models.User{}, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return models.User{}, kindError(ErrForbidden, "admin role required")
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.User{}, translate(err, "user")
	}
	return target, nil
}

func (s *userService) afterModeration(ctx context.Context, actor Actor, target models.User, action string, event NotificationEvent, metadata map[string]interface{}) {
	metadata["username"] = target.Username
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: models.EntityUser,
		EntityID:   uintPtr(target.ID),
		Metadata:   metadata,
	})

	if s.notifier == nil {
		return
	}
	event.ActorID = actor.ID
	event.ActorName = actor.Name
	event.RecipientID = target.ID
	event.Target = "account"
	s.notifier.Notify(ctx, event)
}
