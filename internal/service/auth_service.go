package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

// AuthService handles registration, login and token rotation.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error
}

type authService struct {
	users     repository.UserRepository
	tokens    *TokenIssuer
	validator *validator.Validate
	logger    zerolog.Logger
	cost      int
	now       func() time.Time
}

// NewAuthService constructs an auth service.
func NewAuthService(users repository.UserRepository, tokens *TokenIssuer, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, payload.Username, payload.Email)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if exists {
		return dto.AuthResponse{}, kindError(ErrConflict, "username or email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.cost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: string(hash),
		Role:         models.RoleMember,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, kindError(ErrConflict, "username or email already registered")
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return s.respond(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, kindError(ErrUnauthenticated, "invalid email or password")
		}
		return dto.AuthResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		s.logger.Warn().Uint("user_id", user.ID).Msg("login rejected")
		return dto.AuthResponse{}, kindError(ErrUnauthenticated, "invalid email or password")
	}
	if user.IsBanned {
		return dto.AuthResponse{}, kindError(ErrForbidden, "account is banned: %s", user.BanReason)
	}

	updated, err := s.users.Update(ctx, user.ID, map[string]interface{}{"last_login_at": s.now()})
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return s.respond(updated)
}

func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	userID, err := s.tokens.ParseRefresh(payload.RefreshToken)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, kindError(ErrUnauthenticated, "account no longer exists")
		}
		return dto.AuthResponse{}, err
	}
	if user.IsBanned {
		return dto.AuthResponse{}, kindError(ErrForbidden, "account is banned: %s", user.BanReason)
	}
	return s.respond(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, translate(err, "user")
	}
	return dto.NewUserResponse(user, true), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return translate(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.CurrentPassword)) != nil {
		return validation.NewError("currentPassword", "is incorrect")
	}
	if payload.CurrentPassword == payload.NewPassword {
		return validation.NewError("newPassword", "must differ from the current password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), s.cost)
	if err != nil {
		return err
	}
	if _, err := s.users.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return translate(err, "user")
	}

	s.logger.Info().Uint("user_id", userID).Msg("password changed")
	return nil
}

func (s *authService) respond(user models.User) (dto.AuthResponse, error) {
	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{User: dto.NewUserResponse(user, true), Tokens: tokens}, nil
}
