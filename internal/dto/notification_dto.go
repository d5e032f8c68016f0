package dto

import (
	"time"

	"github.com/noah-isme/forum-api/internal/models"
)

// NotificationCreateRequest describes the payload to create a notification.
type NotificationCreateRequest struct {
	RecipientID uint                   `json:"recipientId" validate:"required"`
	SenderID    *uint                  `json:"senderId"`
	Type        string                 `json:"type" validate:"required,oneof=answer_received answer_accepted answer_unaccepted comment_received comment_reply vote_received content_removed account_banned account_unbanned role_changed system"`
	Title       string                 `json:"title" validate:"required,min=1,max=255"`
	Message     string                 `json:"message" validate:"required,min=1,max=2000"`
	QuestionID  *uint                  `json:"questionId"`
	AnswerID    *uint                  `json:"answerId"`
	CommentID   *uint                  `json:"commentId"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID          uint                   `json:"id"`
	RecipientID uint                   `json:"recipientId"`
	SenderID    *uint                  `json:"senderId"`
	Sender      *UserSummary           `json:"sender,omitempty"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	QuestionID  *uint                  `json:"questionId,omitempty"`
	AnswerID    *uint                  `json:"answerId,omitempty"`
	CommentID   *uint                  `json:"commentId,omitempty"`
	IsRead      bool                   `json:"isRead"`
	ReadAt      *time.Time             `json:"readAt,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	response := NotificationResponse{
		ID:          model.ID,
		RecipientID: model.RecipientID,
		SenderID:    model.SenderID,
		Type:        model.Type,
		Title:       model.Title,
		Message:     model.Message,
		QuestionID:  model.QuestionID,
		AnswerID:    model.AnswerID,
		CommentID:   model.CommentID,
		IsRead:      model.IsRead,
		ReadAt:      model.ReadAt,
		CreatedAt:   model.CreatedAt,
	}
	if model.Sender != nil && model.Sender.ID != 0 {
		sender := NewUserSummary(*model.Sender)
		response.Sender = &sender
	}
	if len(model.Metadata) > 0 {
		response.Metadata = map[string]interface{}(model.Metadata)
	}
	return response
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}

// NotificationListQuery filters the caller's notifications.
type NotificationListQuery struct {
	Page       int
	Limit      int
	UnreadOnly bool
}

// NotificationPagination adds the notification total to page metadata.
type NotificationPagination struct {
	Pagination
	TotalNotifications int64 `json:"totalNotifications"`
}

// NotificationListResponse wraps a page of notifications with the unread counter.
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Pagination    NotificationPagination `json:"pagination"`
	UnreadCount   int64                  `json:"unreadCount"`
}

// NotificationBulkResult reports how many notifications a bulk operation touched.
type NotificationBulkResult struct {
	Affected int64 `json:"affected"`
}

// RealtimeNotification is the payload pushed over live connections.
type RealtimeNotification struct {
	ID         uint      `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	QuestionID *uint     `json:"questionId,omitempty"`
	AnswerID   *uint     `json:"answerId,omitempty"`
	CommentID  *uint     `json:"commentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewRealtimeNotification trims a notification response down to the push payload.
func NewRealtimeNotification(n NotificationResponse) RealtimeNotification {
	return RealtimeNotification{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		QuestionID: n.QuestionID,
		AnswerID:   n.AnswerID,
		CommentID:  n.CommentID,
		CreatedAt:  n.CreatedAt,
	}
}
