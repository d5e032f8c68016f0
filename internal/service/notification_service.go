package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/observability"
	"github.com/noah-isme/forum-api/internal/realtime"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

// Notifier is the narrow dependency content services use to emit events.
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent)
}

// NotificationService persists notifications, pushes them to live connections
// and serves the recipient's inbox.
type NotificationService interface {
	Notifier
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, recipientID uint, query dto.NotificationListQuery) (dto.NotificationListResponse, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error)
	MarkUnread(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, recipientID uint) (dto.NotificationBulkResult, error)
	Delete(ctx context.Context, id, recipientID uint) error
	ClearAll(ctx context.Context, recipientID uint) (dto.NotificationBulkResult, error)
	Subscribe(recipientID uint) (<-chan realtime.Event, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	directory realtime.Directory
	relay     realtime.Relay
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewNotificationService constructs a notification service. relay is nil when
// the process runs as a single instance.
func NewNotificationService(repo repository.NotificationRepository, directory realtime.Directory, relay realtime.Relay, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		directory: directory,
		relay:     relay,
		validator: validate,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/forum-api/internal/service/notification"),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.relay != nil {
		go s.relay.Run(ctx)
	}
}

func (s *notificationService) Notify(ctx context.Context, event NotificationEvent) {
	request, ok := BuildNotification(event)
	if !ok {
		return
	}
	if _, err := s.Publish(ctx, request); err != nil {
		s.logger.Warn().
			Err(err).
			Str("type", event.Type).
			Uint("recipient_id", event.RecipientID).
			Msg("failed to publish notification")
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	cleanTitle := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if cleanMessage == "" {
		return dto.NotificationResponse{}, validation.NewError("message", "must not be empty after sanitization")
	}
	if cleanTitle == "" {
		return dto.NotificationResponse{}, validation.NewError("title", "must not be empty after sanitization")
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.Int("notification.recipient_id", int(payload.RecipientID)),
		attribute.String("notification.type", payload.Type),
	))
	defer span.End()

	model := models.Notification{
		RecipientID: payload.RecipientID,
		SenderID:    payload.SenderID,
		Type:        payload.Type,
		Title:       cleanTitle,
		Message:     cleanMessage,
		QuestionID:  payload.QuestionID,
		AnswerID:    payload.AnswerID,
		CommentID:   payload.CommentID,
		Metadata:    datatypes.JSONMap(payload.Metadata),
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(model)
	observability.NotificationsPublishedTotal().WithLabelValues(response.Type).Inc()
	s.push(spanCtx, response)

	return response, nil
}

// push delivers to local connections and forwards to the relay. It never
// fails the caller: the stored record is authoritative.
func (s *notificationService) push(ctx context.Context, notification dto.NotificationResponse) {
	event, err := realtime.NewEvent(notification.Type, dto.NewRealtimeNotification(notification))
	if err != nil {
		s.logger.Warn().Err(err).Uint("notification_id", notification.ID).Msg("failed to encode realtime event")
		return
	}

	if s.directory != nil {
		s.directory.Deliver(notification.RecipientID, event)
	}

	if s.relay != nil {
		if err := s.relay.Publish(ctx, notification.RecipientID, event); err != nil {
			observability.RealtimePushTotal().WithLabelValues("relay_failed").Inc()
			s.logger.Warn().Err(err).Uint("notification_id", notification.ID).Msg("failed to relay notification")
		}
	}
}

func (s *notificationService) List(ctx context.Context, recipientID uint, query dto.NotificationListQuery) (dto.NotificationListResponse, error) {
	page, limit := dto.NormalizePage(query.Page, query.Limit, 20, 100)

	items, total, err := s.repo.List(ctx, repository.NotificationFilter{
		RecipientID: recipientID,
		UnreadOnly:  query.UnreadOnly,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	return dto.NotificationListResponse{
		Notifications: dto.NewNotificationResponseSlice(items),
		Pagination: dto.NotificationPagination{
			Pagination:         dto.NewPagination(page, limit, total),
			TotalNotifications: total,
		},
		UnreadCount: unread,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error) {
	return s.setRead(ctx, id, recipientID, true)
}

func (s *notificationService) MarkUnread(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error) {
	return s.setRead(ctx, id, recipientID, false)
}

func (s *notificationService) setRead(ctx context.Context, id, recipientID uint, read bool) (dto.NotificationResponse, error) {
	if err := s.ensureOwner(ctx, id, recipientID); err != nil {
		return dto.NotificationResponse{}, err
	}

	notification, err := s.repo.SetRead(ctx, id, read, s.now())
	if err != nil {
		return dto.NotificationResponse{}, translate(err, "notification")
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID uint) (dto.NotificationBulkResult, error) {
	affected, err := s.repo.MarkAllRead(ctx, recipientID, s.now())
	if err != nil {
		return dto.NotificationBulkResult{}, err
	}
	return dto.NotificationBulkResult{Affected: affected}, nil
}

func (s *notificationService) Delete(ctx context.Context, id, recipientID uint) error {
	if err := s.ensureOwner(ctx, id, recipientID); err != nil {
		return err
	}
	return translate(s.repo.Delete(ctx, id), "notification")
}

func (s *notificationService) ClearAll(ctx context.Context, recipientID uint) (dto.NotificationBulkResult, error) {
	affected, err := s.repo.DeleteAll(ctx, recipientID)
	if err != nil {
		return dto.NotificationBulkResult{}, err
	}
	return dto.NotificationBulkResult{Affected: affected}, nil
}

func (s *notificationService) Subscribe(recipientID uint) (<-chan realtime.Event, func()) {
	return s.directory.Register(recipientID)
}

func (s *notificationService) ensureOwner(ctx context.Context, id, recipientID uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translate(err, "notification")
	}
	if notification.RecipientID != recipientID {
		return kindError(ErrForbidden, "notification belongs to another user")
	}
	return nil
}
