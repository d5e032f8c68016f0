package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types.
const (
	NotificationAnswerReceived   = "answer_received"
	NotificationAnswerAccepted   = "answer_accepted"
	NotificationAnswerUnaccepted = "answer_unaccepted"
	NotificationCommentReceived  = "comment_received"
	NotificationCommentReply     = "comment_reply"
	NotificationVoteReceived     = "vote_received"
	NotificationContentRemoved   = "content_removed"
	NotificationAccountBanned    = "account_banned"
	NotificationAccountUnbanned  = "account_unbanned"
	NotificationRoleChanged      = "role_changed"
	NotificationSystem           = "system"
)

// NotificationTypes lists every accepted notification type.
var NotificationTypes = []string{
	NotificationAnswerReceived,
	NotificationAnswerAccepted,
	NotificationAnswerUnaccepted,
	NotificationCommentReceived,
	NotificationCommentReply,
	NotificationVoteReceived,
	NotificationContentRemoved,
	NotificationAccountBanned,
	NotificationAccountUnbanned,
	NotificationRoleChanged,
	NotificationSystem,
}

// Notification is the persisted, authoritative record of an event for a recipient.
type Notification struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	RecipientID uint              `gorm:"not null;index:idx_notification_recipient_read,priority:1" json:"recipient_id"`
	SenderID    *uint             `gorm:"index" json:"sender_id"`
	Sender      *User             `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        string            `gorm:"size:32;not null" json:"type"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Message     string            `gorm:"type:text;not null" json:"message"`
	QuestionID  *uint             `json:"question_id"`
	AnswerID    *uint             `json:"answer_id"`
	CommentID   *uint             `json:"comment_id"`
	IsRead      bool              `gorm:"not null;default:false;index:idx_notification_recipient_read,priority:2" json:"is_read"`
	ReadAt      *time.Time        `json:"read_at"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}
