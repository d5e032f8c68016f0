package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/observability"
	"github.com/noah-isme/forum-api/internal/repository"
)

// VoteService casts votes on questions, answers and comments.
type VoteService interface {
	Vote(ctx context.Context, actor Actor, targetType string, targetID uint, payload dto.VoteRequest) (dto.VoteResponse, error)
	VoteOf(ctx context.Context, actor Actor, targetType string, targetID uint) models.VoteDirection
	VotesOf(ctx context.Context, actor Actor, targetType string, targetIDs []uint) map[uint]models.VoteDirection
}

type voteService struct {
	repo      repository.VoteRepository
	notifier  Notifier
	validator *validator.Validate
	allowSelf bool
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewVoteService constructs a vote service. allowSelf controls whether authors
// may vote on their own content.
func NewVoteService(repo repository.VoteRepository, notifier Notifier, validate *validator.Validate, allowSelf bool, logger zerolog.Logger) VoteService {
	return &voteService{
		repo:      repo,
		notifier:  notifier,
		validator: validate,
		allowSelf: allowSelf,
		logger:    logger.With().Str("component", "vote_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/forum-api/internal/service/vote"),
	}
}

func (s *voteService) Vote(ctx context.Context, actor Actor, targetType string, targetID uint, payload dto.VoteRequest) (dto.VoteResponse, error) {
	if !actor.Authenticated() {
		return dto.VoteResponse{}, ErrUnauthenticated
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.VoteResponse{}, err
	}

	target := repository.VoteTarget{Type: targetType, ID: targetID}
	if !s.allowSelf {
		authorID, err := s.repo.AuthorOf(ctx, target)
		if err != nil {
			return dto.VoteResponse{}, translate(err, targetType)
		}
		if authorID == actor.ID {
			return dto.VoteResponse{}, kindError(ErrForbidden, "cannot vote on your own %s", targetType)
		}
	}

	spanCtx, span := s.tracer.Start(ctx, "votes.cast", trace.WithAttributes(
		attribute.String("vote.target_type", targetType),
		attribute.Int("vote.target_id", int(targetID)),
		attribute.String("vote.type", payload.VoteType),
	))
	defer span.End()

	direction := payload.Direction()
	outcome, err := s.repo.Cast(spanCtx, target, actor.ID, direction)
	if err != nil {
		span.RecordError(err)
		return dto.VoteResponse{}, translate(err, targetType)
	}

	observability.VotesTotal().WithLabelValues(targetType, payload.VoteType).Inc()
	s.logger.Debug().
		Str("target_type", targetType).
		Uint("target_id", targetID).
		Uint("voter_id", actor.ID).
		Int("previous", int(outcome.Previous)).
		Int("current", int(outcome.Current)).
		Msg("vote applied")

	if outcome.Current == models.VoteUp && outcome.Previous != models.VoteUp && s.notifier != nil {
		event := NotificationEvent{
			Type:        models.NotificationVoteReceived,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
			RecipientID: outcome.AuthorID,
			Target:      targetType,
		}
		setContentRef(&event, targetType, targetID)
		s.notifier.Notify(ctx, event)
	}

	return dto.NewVoteResponse(outcome.Counters, outcome.Current), nil
}

// VoteOf returns the caller's vote, VoteNone for guests or on lookup failure.
func (s *voteService) VoteOf(ctx context.Context, actor Actor, targetType string, targetID uint) models.VoteDirection {
	if !actor.Authenticated() {
		return models.VoteNone
	}
	direction, err := s.repo.VoteOf(ctx, repository.VoteTarget{Type: targetType, ID: targetID}, actor.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("target_type", targetType).Uint("target_id", targetID).Msg("failed to load caller vote")
		return models.VoteNone
	}
	return direction
}

func (s *voteService) VotesOf(ctx context.Context, actor Actor, targetType string, targetIDs []uint) map[uint]models.VoteDirection {
	if !actor.Authenticated() || len(targetIDs) == 0 {
		return map[uint]models.VoteDirection{}
	}
	votes, err := s.repo.VotesOf(ctx, targetType, targetIDs, actor.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("target_type", targetType).Msg("failed to load caller votes")
		return map[uint]models.VoteDirection{}
	}
	return votes
}

func setContentRef(event *NotificationEvent, targetType string, id uint) {
	ref := id
	switch targetType {
	case models.ContentQuestion:
		event.QuestionID = &ref
	case models.ContentAnswer:
		event.AnswerID = &ref
	case models.ContentComment:
		event.CommentID = &ref
	}
}
