package handler_test

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/handler"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/service"
)

type stubUsers struct {
	service.UserService
	banned *dto.BanRequest
	query  dto.UserListQuery
}

func (s *stubUsers) List(_ context.Context, query dto.UserListQuery) (dto.UserListResponse, error) {
	s.query = query
	return dto.UserListResponse{Users: []dto.UserResponse{}}, nil
}

func (s *stubUsers) Ban(_ context.Context, _ service.Actor, id uint, payload dto.BanRequest) (dto.UserResponse, error) {
	s.banned = &payload
	return dto.UserResponse{ID: id, IsBanned: true, BanReason: payload.Reason}, nil
}

type stubAvatars struct {
	filename string
	userID   uint
	err      error
}

func (s *stubAvatars) Upload(_ context.Context, _ service.Actor, userID uint, file *multipart.FileHeader) (dto.AvatarResponse, error) {
	s.userID = userID
	if file != nil {
		s.filename = file.Filename
	}
	if s.err != nil {
		return dto.AvatarResponse{}, s.err
	}
	return dto.AvatarResponse{URL: "https://cdn.example.com/user-7.png", MimeType: "image/png"}, nil
}

func userApp(users *stubUsers, avatars *stubAvatars, callerID uint, role string) *fiber.App {
	app := fiber.New()
	handler.NewUserHandler(users, avatars, &stubQuestions{}, &stubAnswers{}, zerolog.Nop()).
		Register(app.Group("/users", withCaller(callerID, role)))
	return app
}

func TestUserHandlerListForwardsSearch(t *testing.T) {
	users := &stubUsers{}
	resp, _ := perform(t, userApp(users, &stubAvatars{}, 0, ""), httptest.NewRequest(http.MethodGet, "/users?search=goph&role=admin&page=2", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, dto.UserListQuery{Page: 2, Search: "goph", Role: "admin"}, users.query)
}

func TestUserHandlerBanRequiresAdmin(t *testing.T) {
	users := &stubUsers{}
	payload := dto.BanRequest{Reason: "repeated spam"}

	resp, _ := perform(t, userApp(users, &stubAvatars{}, 7, models.RoleMember), jsonRequest(http.MethodPut, "/users/9/ban", payload))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Nil(t, users.banned)

	resp, body := perform(t, userApp(users, &stubAvatars{}, 1, models.RoleAdmin), jsonRequest(http.MethodPut, "/users/9/ban", payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, users.banned)

	var banned dto.UserResponse
	require.NoError(t, json.Unmarshal(body.Data, &banned))
	require.True(t, banned.IsBanned)
	require.Equal(t, "repeated spam", banned.BanReason)
}

func TestUserHandlerAvatarUpload(t *testing.T) {
	avatars := &stubAvatars{}
	app := userApp(&stubUsers{}, avatars, 7, models.RoleMember)

	resp, body := perform(t, app, multipartRequest(t, "/users/7/avatar", "avatar", "me.png", []byte("png")))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "avatar updated", body.Message)
	require.Equal(t, uint(7), avatars.userID)
	require.Equal(t, "me.png", avatars.filename)
}

func TestUserHandlerAvatarUploadErrors(t *testing.T) {
	app := userApp(&stubUsers{}, &stubAvatars{}, 7, models.RoleMember)
	resp, _ := perform(t, app, multipartRequest(t, "/users/7/avatar", "file", "me.png", []byte("png")))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "too_large", err: service.ErrAvatarTooLarge, status: http.StatusBadRequest},
		{name: "type", err: service.ErrAvatarType, status: http.StatusBadRequest},
		{name: "storage", err: service.ErrStorageUnavailable, status: http.StatusBadRequest},
		{name: "other_user", err: service.ErrForbidden, status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := userApp(&stubUsers{}, &stubAvatars{err: tc.err}, 7, models.RoleMember)
			resp, _ := perform(t, app, multipartRequest(t, "/users/7/avatar", "avatar", "me.png", []byte("png")))
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}

	guest := userApp(&stubUsers{}, &stubAvatars{}, 0, "")
	resp, _ = perform(t, guest, multipartRequest(t, "/users/7/avatar", "avatar", "me.png", []byte("png")))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type stubAuth struct {
	service.AuthService
	registered *dto.RegisterRequest
	meID       uint
}

func (s *stubAuth) Register(_ context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	s.registered = &payload
	return dto.AuthResponse{User: dto.UserResponse{ID: 1, Username: payload.Username}, Tokens: dto.TokenPair{AccessToken: "a", RefreshToken: "r"}}, nil
}

func (s *stubAuth) Me(_ context.Context, userID uint) (dto.UserResponse, error) {
	s.meID = userID
	return dto.UserResponse{ID: userID}, nil
}

func TestAuthHandlerRegisterAndMe(t *testing.T) {
	auth := &stubAuth{}

	guest := fiber.New()
	handler.NewAuthHandler(auth, zerolog.Nop()).Register(guest.Group("/auth", withCaller(0, "")), nil)

	resp, body := perform(t, guest, jsonRequest(http.MethodPost, "/auth/register", dto.RegisterRequest{Username: "gopher", Email: "gopher@example.com", Password: "correct-horse"}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "gopher", auth.registered.Username)

	var registered dto.AuthResponse
	require.NoError(t, json.Unmarshal(body.Data, &registered))
	require.Equal(t, "a", registered.Tokens.AccessToken)

	resp, _ = perform(t, guest, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	member := fiber.New()
	handler.NewAuthHandler(auth, zerolog.Nop()).Register(member.Group("/auth", withCaller(7, models.RoleMember)), nil)
	resp, _ = perform(t, member, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), auth.meID)
}

func TestAuthHandlerRejectsMalformedJSON(t *testing.T) {
	app := fiber.New()
	handler.NewAuthHandler(&stubAuth{}, zerolog.Nop()).Register(app.Group("/auth"), nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, body := perform(t, app, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid payload", body.Message)
}

type stubActivity struct {
	service.ActivityService
	query dto.ActivityListQuery
}

func (s *stubActivity) List(_ context.Context, query dto.ActivityListQuery) (dto.ActivityListResponse, error) {
	s.query = query
	return dto.ActivityListResponse{}, nil
}

func TestAdminActivityHandlerFilters(t *testing.T) {
	activity := &stubActivity{}
	app := fiber.New()
	handler.NewAdminActivityHandler(activity, zerolog.Nop()).Register(app.Group("/admin/activity"))

	resp, _ := perform(t, app, httptest.NewRequest(http.MethodGet, "/admin/activity?pageSize=500&action=user.ban&entityType=user&actorId=3&entityId=9", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, dto.ActivityListQuery{Page: 1, PageSize: 100, ActorID: 3, Action: "user.ban", EntityType: "user", EntityID: 9}, activity.query)

	resp, _ = perform(t, app, httptest.NewRequest(http.MethodGet, "/admin/activity?actorId=me", nil))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = perform(t, app, httptest.NewRequest(http.MethodGet, "/admin/activity?entityId=-1", nil))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
