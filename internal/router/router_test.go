package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/config"
	"github.com/noah-isme/forum-api/internal/database"
	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/handler"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/realtime"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/router"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/validation"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type client struct {
	t   *testing.T
	app *fiber.App
}

func (c client) do(method, target, token string, body interface{}) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var payload envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func setupApp(t *testing.T) (client, *gorm.DB) {
	t.Helper()

	db, err := database.Connect("sqlite", fmt.Sprintf("file:router_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := config.Config{
		AppName:          "Forum API",
		AppEnv:           "test",
		JWTSecret:        "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
		VoteRateLimit:    100,
		AuthRateLimit:    100,
	}
	logger := zerolog.Nop()
	validate := validation.New()

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), realtime.NewHub(), nil, validate, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	votes := service.NewVoteService(repository.NewVoteRepository(db), notifications, validate, true, logger)
	questions := service.NewQuestionService(service.QuestionDeps{
		Questions: questionRepo, Answers: answerRepo, Comments: commentRepo,
		Votes: votes, Notifier: notifications, Activity: activity,
	}, validate, logger)
	answers := service.NewAnswerService(service.AnswerDeps{
		Answers: answerRepo, Questions: questionRepo,
		Votes: votes, Notifier: notifications, Activity: activity,
	}, validate, logger)
	comments := service.NewCommentService(service.CommentDeps{
		Comments: commentRepo, Questions: questionRepo, Answers: answerRepo,
		Votes: votes, Notifier: notifications, Activity: activity,
	}, validate, logger)
	users := service.NewUserService(userRepo, notifications, activity, validate, logger)
	auth := service.NewAuthService(userRepo, service.NewTokenIssuer(service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}), validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{AppName: cfg.AppName})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(auth, logger),
		UserHandler:          handler.NewUserHandler(users, service.NewAvatarService(nil, repository.NewUploadRepository(db), userRepo, 2, logger), questions, answers, logger),
		QuestionHandler:      handler.NewQuestionHandler(questions, answers, comments, votes, logger),
		AnswerHandler:        handler.NewAnswerHandler(answers, comments, votes, logger),
		CommentHandler:       handler.NewCommentHandler(comments, votes, logger),
		NotificationHandler:  handler.NewNotificationHandler(notifications, logger, time.Second),
		RealtimeHandler:      handler.NewRealtimeHandler(notifications, logger, time.Second),
		AdminActivityHandler: handler.NewAdminActivityHandler(activity, logger),
		AccountLookup:        users.Account,
		Logger:               logger,
	})

	return client{t: t, app: app}, db
}

func register(t *testing.T, c client, username string) (uint, string) {
	t.Helper()
	status, body := c.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse-battery",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	auth := decode[dto.AuthResponse](t, body.Data)
	return auth.User.ID, auth.Tokens.AccessToken
}

func TestForumFlow(t *testing.T) {
	c, _ := setupApp(t)

	askerID, asker := register(t, c, "asker")
	_, helper := register(t, c, "helper")

	status, body := c.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "asker@example.com", Password: "correct-horse-battery"})
	require.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodPost, "/api/v1/questions", "", dto.QuestionCreateRequest{})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body = c.do(http.MethodPost, "/api/v1/questions", asker, dto.QuestionCreateRequest{
		Title:       "Channels and select",
		Description: "How do I wait on two channels and a timeout at once?",
		Tags:        []string{"Go", "concurrency"},
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	question := decode[dto.QuestionResponse](t, body.Data)
	require.Equal(t, []string{"go", "concurrency"}, question.Tags)

	status, body = c.do(http.MethodPost, "/api/v1/answers", helper, dto.AnswerCreateRequest{
		QuestionID: question.ID,
		Content:    "Use a select statement with a time.After case next to both channels.",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	answer := decode[dto.AnswerResponse](t, body.Data)

	status, body = c.do(http.MethodGet, "/api/v1/notifications/unread-count", asker, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"unreadCount":1}`, string(body.Data))

	status, _ = c.do(http.MethodPost, fmt.Sprintf("/api/v1/answers/%d/accept", answer.ID), helper, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodPost, fmt.Sprintf("/api/v1/answers/%d/accept", answer.ID), asker, nil)
	require.Equal(t, http.StatusOK, status, body.Message)
	acceptance := decode[dto.AcceptanceResponse](t, body.Data)
	require.True(t, acceptance.Question.IsAnswered)
	require.Equal(t, &answer.ID, acceptance.Question.AcceptedAnswer)

	status, body = c.do(http.MethodPost, fmt.Sprintf("/api/v1/questions/%d/vote", question.ID), helper, dto.VoteRequest{VoteType: dto.VoteTypeUpvote})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, decode[dto.VoteResponse](t, body.Data).VoteCount)

	status, body = c.do(http.MethodGet, fmt.Sprintf("/api/v1/questions/%d", question.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	detail := decode[dto.QuestionDetailResponse](t, body.Data)
	require.Len(t, detail.Answers, 1)
	require.True(t, detail.Answers[0].IsAccepted)
	require.Nil(t, detail.UserVote)
	require.Equal(t, int64(1), detail.Views)

	status, body = c.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", askerID), "", nil)
	require.Equal(t, http.StatusOK, status)
	profile := decode[dto.UserProfileResponse](t, body.Data)
	require.Empty(t, profile.User.Email)
	require.Equal(t, int64(1), profile.Stats.Questions)
}

func TestBannedAccountIsLockedOut(t *testing.T) {
	c, db := setupApp(t)

	adminID, admin := register(t, c, "moderator")
	memberID, member := register(t, c, "spammer")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", adminID).Update("role", models.RoleAdmin).Error)

	status, _ := c.do(http.MethodGet, "/api/v1/admin/activity", member, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body := c.do(http.MethodPut, fmt.Sprintf("/api/v1/users/%d/ban", memberID), admin, dto.BanRequest{Reason: "posting spam"})
	require.Equal(t, http.StatusOK, status, body.Message)

	status, body = c.do(http.MethodGet, "/api/v1/auth/me", member, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "account is banned: posting spam", body.Message)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "spammer@example.com", Password: "correct-horse-battery"})
	require.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodGet, "/api/v1/admin/activity?entityType=user", admin, nil)
	require.Equal(t, http.StatusOK, status)
	activity := decode[dto.ActivityListResponse](t, body.Data)
	require.NotEmpty(t, activity.Items)
}

func TestProtectedGroupsRejectGuests(t *testing.T) {
	c, _ := setupApp(t)

	for _, target := range []string{"/api/v1/notifications", "/api/v1/admin/activity", "/api/v1/auth/me"} {
		status, _ := c.do(http.MethodGet, target, "", nil)
		require.Equal(t, http.StatusUnauthorized, status, target)
	}

	status, body := c.do(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)
}
