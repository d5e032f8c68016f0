package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/handler"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/service"
)

type stubNotifications struct {
	service.NotificationService
	recipient uint
	query     dto.NotificationListQuery
	owner     uint
}

func (s *stubNotifications) List(_ context.Context, recipientID uint, query dto.NotificationListQuery) (dto.NotificationListResponse, error) {
	s.recipient = recipientID
	s.query = query
	questionID := uint(3)
	return dto.NotificationListResponse{
		Notifications: []dto.NotificationResponse{{
			ID:          1,
			RecipientID: recipientID,
			Type:        models.NotificationAnswerReceived,
			Title:       "New answer",
			Message:     "helper answered your question: Channels and select",
			QuestionID:  &questionID,
			CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}},
		Pagination: dto.NotificationPagination{
			Pagination:         dto.NewPagination(1, 20, 1),
			TotalNotifications: 1,
		},
		UnreadCount: 1,
	}, nil
}

func (s *stubNotifications) UnreadCount(_ context.Context, recipientID uint) (int64, error) {
	s.recipient = recipientID
	return 4, nil
}

func (s *stubNotifications) MarkRead(_ context.Context, id, recipientID uint) (dto.NotificationResponse, error) {
	if recipientID != s.owner {
		return dto.NotificationResponse{}, fmt.Errorf("%w: notification belongs to another user", service.ErrForbidden)
	}
	return dto.NotificationResponse{ID: id, RecipientID: recipientID, IsRead: true}, nil
}

func (s *stubNotifications) MarkAllRead(_ context.Context, recipientID uint) (dto.NotificationBulkResult, error) {
	s.recipient = recipientID
	return dto.NotificationBulkResult{Affected: 3}, nil
}

func notificationApp(notifications *stubNotifications, callerID uint) *fiber.App {
	app := fiber.New()
	handler.NewNotificationHandler(notifications, zerolog.Nop(), time.Second).
		Register(app.Group("/notifications", withCaller(callerID, models.RoleMember)))
	return app
}

func TestNotificationHandlerListIsRecipientScoped(t *testing.T) {
	notifications := &stubNotifications{}
	app := notificationApp(notifications, 7)

	resp, body := perform(t, app, httptest.NewRequest(http.MethodGet, "/notifications?page=1&limit=20&unreadOnly=true", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), notifications.recipient)
	require.Equal(t, dto.NotificationListQuery{Page: 1, Limit: 20, UnreadOnly: true}, notifications.query)

	var list dto.NotificationListResponse
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Equal(t, int64(1), list.UnreadCount)
	require.Len(t, list.Notifications, 1)
}

func TestNotificationHandlerUnreadCount(t *testing.T) {
	notifications := &stubNotifications{}
	resp, body := perform(t, notificationApp(notifications, 7), httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"unreadCount":4}`, string(body.Data))
}

func TestNotificationHandlerMarkReadForeignIsForbidden(t *testing.T) {
	notifications := &stubNotifications{owner: 7}

	resp, _ := perform(t, notificationApp(notifications, 8), jsonRequest(http.MethodPut, "/notifications/1/read", nil))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := perform(t, notificationApp(notifications, 7), jsonRequest(http.MethodPut, "/notifications/1/read", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated dto.NotificationResponse
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	require.True(t, updated.IsRead)
}

func TestNotificationHandlerMarkAllReadRoutesBeforeID(t *testing.T) {
	notifications := &stubNotifications{}
	resp, body := perform(t, notificationApp(notifications, 7), jsonRequest(http.MethodPut, "/notifications/mark-all-read", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"affected":3}`, string(body.Data))
	require.Equal(t, uint(7), notifications.recipient)
}

func TestNotificationHandlerRejectsMalformedID(t *testing.T) {
	resp, _ := perform(t, notificationApp(&stubNotifications{}, 7), jsonRequest(http.MethodPut, "/notifications/zero/unread", nil))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
