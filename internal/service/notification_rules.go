package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
)

const subjectExcerptLength = 80

// NotificationEvent describes something that happened to a user's content or
// account. Type is one of the models.Notification* values.
type NotificationEvent struct {
	Type        string
	ActorID     uint
	ActorName   string
	RecipientID uint
	Target      string
	Subject     string
	Reason      string
	Role        string
	QuestionID  *uint
	AnswerID    *uint
	CommentID   *uint
}

// BuildNotification turns an event into a notification request. It reports
// false when nobody should be notified: no recipient, or the actor would be
// notifying themselves.
func BuildNotification(event NotificationEvent) (dto.NotificationCreateRequest, bool) {
	if event.RecipientID == 0 || event.RecipientID == event.ActorID {
		return dto.NotificationCreateRequest{}, false
	}

	actor := event.ActorName
	if actor == "" {
		actor = "Someone"
	}
	target := event.Target
	if target == "" {
		target = models.ContentQuestion
	}
	subject := excerpt(event.Subject, subjectExcerptLength)

	var title, message string
	switch event.Type {
	case models.NotificationAnswerReceived:
		title = "New answer to your question"
		message = withSubject(actor+" answered your question", subject)
	case models.NotificationAnswerAccepted:
		title = "Your answer was accepted"
		message = withSubject(actor+" accepted your answer", subject)
	case models.NotificationAnswerUnaccepted:
		title = "Your answer is no longer accepted"
		message = withSubject(actor+" removed the acceptance of your answer", subject)
	case models.NotificationCommentReceived:
		title = "New comment on your " + target
		message = withSubject(actor+" commented on your "+target, subject)
	case models.NotificationCommentReply:
		title = "New reply to your comment"
		message = withSubject(actor+" replied to your comment", subject)
	case models.NotificationVoteReceived:
		title = "Your " + target + " received an upvote"
		message = withSubject(actor+" upvoted your "+target, subject)
	case models.NotificationContentRemoved:
		title = "Your " + target + " was removed"
		message = withSubject("A moderator removed your "+target, subject)
		if event.Reason != "" {
			message += " (" + event.Reason + ")"
		}
	case models.NotificationAccountBanned:
		title = "Your account has been banned"
		message = "Reason: " + event.Reason
	case models.NotificationAccountUnbanned:
		title = "Your account has been reinstated"
		message = "You can post, vote and comment again."
	case models.NotificationRoleChanged:
		title = "Your role has changed"
		message = fmt.Sprintf("Your role is now %s.", event.Role)
	default:
		return dto.NotificationCreateRequest{}, false
	}

	request := dto.NotificationCreateRequest{
		RecipientID: event.RecipientID,
		Type:        event.Type,
		Title:       title,
		Message:     message,
		QuestionID:  event.QuestionID,
		AnswerID:    event.AnswerID,
		CommentID:   event.CommentID,
	}
	if event.ActorID != 0 {
		actorID := event.ActorID
		request.SenderID = &actorID
	}
	if event.Target != "" {
		request.Metadata = map[string]interface{}{"target": event.Target}
	}
	return request, true
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

func withSubject(message, subject string) string {
	if subject == "" {
		return message + "."
	}
	return message + ": " + subject
}
