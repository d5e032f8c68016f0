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

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

const defaultBountyDays = 7

// QuestionService exposes question use-cases.
type QuestionService interface {
	List(ctx context.Context, actor Actor, query dto.QuestionListQuery) (dto.QuestionListResponse, error)
	ListByAuthor(ctx context.Context, actor Actor, authorID uint, page, limit int) (dto.QuestionListResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	Detail(ctx context.Context, actor Actor, id uint, viewer string) (dto.QuestionDetailResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	Delete(ctx context.Context, actor Actor, id uint, payload dto.DeleteRequest) error
	SetStatus(ctx context.Context, actor Actor, id uint, payload dto.QuestionStatusRequest) (dto.QuestionResponse, error)
	OfferBounty(ctx context.Context, actor Actor, id uint, payload dto.BountyRequest) (dto.QuestionResponse, error)
	Revisions(ctx context.Context, id uint) ([]dto.RevisionResponse, error)
}

// QuestionDeps groups the collaborators of the question service.
type QuestionDeps struct {
	Questions repository.QuestionRepository
	Answers   repository.AnswerRepository
	Comments  repository.CommentRepository
	Votes     VoteService
	Notifier  Notifier
	Activity  ActivityRecorder
	Views     ViewCounter
}

type questionService struct {
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	comments    repository.CommentRepository
	votes       VoteService
	notifier    Notifier
	activity    ActivityRecorder
	views       ViewCounter
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	plain       *bluemonday.Policy
	richContent *bluemonday.Policy
	now         func() time.Time
}

// NewQuestionService constructs a question service.
func NewQuestionService(deps QuestionDeps, validate *validator.Validate, logger zerolog.Logger) QuestionService {
	return &questionService{
		questions:   deps.Questions,
		answers:     deps.Answers,
		comments:    deps.Comments,
		votes:       deps.Votes,
		notifier:    deps.Notifier,
		activity:    deps.Activity,
		views:       deps.Views,
		validator:   validate,
		logger:      logger.With().Str("component", "question_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/forum-api/internal/service/question"),
		plain:       bluemonday.StrictPolicy(),
		richContent: newContentPolicy(),
		now:         time.Now,
	}
}

func (s *questionService) List(ctx context.Context, actor Actor, query dto.QuestionListQuery) (dto.QuestionListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.QuestionListResponse{}, err
	}
	page, limit := dto.NormalizePage(query.Page, query.Limit, 10, 50)

	return s.list(ctx, actor, repository.QuestionFilter{
		Page:   page,
		Limit:  limit,
		Sort:   query.Sort,
		Tag:    query.Tag,
		Search: query.Search,
	})
}

func (s *questionService) ListByAuthor(ctx context.Context, actor Actor, authorID uint, page, limit int) (dto.QuestionListResponse, error) {
	page, limit = dto.NormalizePage(page, limit, 10, 50)
	return s.list(ctx, actor, repository.QuestionFilter{Page: page, Limit: limit, AuthorID: &authorID})
}

func (s *questionService) list(ctx context.Context, actor Actor, filter repository.QuestionFilter) (dto.QuestionListResponse, error) {
	items, total, err := s.questions.List(ctx, filter)
	if err != nil {
		return dto.QuestionListResponse{}, err
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	votes := s.votes.VotesOf(ctx, actor, models.ContentQuestion, ids)

	questions := make([]dto.QuestionResponse, 0, len(items))
	for _, item := range items {
		questions = append(questions, dto.NewQuestionResponse(item, votes[item.ID]))
	}

	return dto.QuestionListResponse{
		Questions: questions,
		Pagination: dto.QuestionPagination{
			Pagination:     dto.NewPagination(filter.Page, filter.Limit, total),
			TotalQuestions: total,
		},
	}, nil
}

func (s *questionService) Create(ctx context.Context, actor Actor, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if !actor.Authenticated() {
		return dto.QuestionResponse{}, ErrUnauthenticated
	}
	payload.Tags = normalizeTags(payload.Tags)
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	title, err := sanitizeText(s.plain, "title", payload.Title, minQuestionTitle, maxQuestionTitle)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	description, err := sanitizeText(s.richContent, "description", payload.Description, minQuestionDescription, maxQuestionDescription)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "questions.create", trace.WithAttributes(
		attribute.Int("question.author_id", int(actor.ID)),
		attribute.Int("question.tags", len(payload.Tags)),
	))
	defer span.End()

	question := models.Question{
		AuthorID:       actor.ID,
		Title:          title,
		Description:    description,
		Tags:           payload.Tags,
		Status:         models.QuestionStatusOpen,
		LastActivityAt: s.now(),
	}
	if err := s.questions.Create(spanCtx, &question); err != nil {
		span.RecordError(err)
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().Uint("question_id", question.ID).Uint("author_id", actor.ID).Msg("question created")
	return dto.NewQuestionResponse(question, models.VoteNone), nil
}

// Detail returns the question with its visible answers and comments. The view
// counter is bumped at most once per viewer per window when de-duplication is
// configured.
func (s *questionService) Detail(ctx context.Context, actor Actor, id uint, viewer string) (dto.QuestionDetailResponse, error) {
	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return dto.QuestionDetailResponse{}, translate(err, "question")
	}

	if s.views == nil || s.views.ShouldCount(ctx, id, viewer) {
		if err := s.questions.IncrementViews(ctx, id); err != nil {
			s.logger.Warn().Err(err).Uint("question_id", id).Msg("failed to increment views")
		} else {
			question.Views++
		}
	}

	answers, err := s.answers.ListByQuestion(ctx, id)
	if err != nil {
		return dto.QuestionDetailResponse{}, err
	}
	comments, err := s.comments.ListByQuestion(ctx, id)
	if err != nil {
		return dto.QuestionDetailResponse{}, err
	}

	answerIDs := make([]uint, 0, len(answers))
	for _, answer := range answers {
		answerIDs = append(answerIDs, answer.ID)
	}
	commentIDs := make([]uint, 0, len(comments))
	for _, comment := range comments {
		commentIDs = append(commentIDs, comment.ID)
	}

	return dto.QuestionDetailResponse{
		QuestionResponse: dto.NewQuestionResponse(question, s.votes.VoteOf(ctx, actor, models.ContentQuestion, id)),
		Answers:          dto.NewAnswerResponseSlice(answers, s.votes.VotesOf(ctx, actor, models.ContentAnswer, answerIDs)),
		Comments:         dto.NewCommentResponseSlice(comments, s.votes.VotesOf(ctx, actor, models.ContentComment, commentIDs)),
	}, nil
}

func (s *questionService) Update(ctx context.Context, actor Actor, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	payload.Tags = normalizeTags(payload.Tags)
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return dto.QuestionResponse{}, translate(err, "question")
	}
	if err := authorizeMutation(question.AuthorID, actor); err != nil {
		return dto.QuestionResponse{}, err
	}

	fields := map[string]interface{}{}
	if payload.Title != nil {
		title, err := sanitizeText(s.plain, "title", *payload.Title, minQuestionTitle, maxQuestionTitle)
		if err != nil {
			return dto.QuestionResponse{}, err
		}
		if title != question.Title {
			fields["title"] = title
		}
	}
	if payload.Description != nil {
		description, err := sanitizeText(s.richContent, "description", *payload.Description, minQuestionDescription, maxQuestionDescription)
		if err != nil {
			return dto.QuestionResponse{}, err
		}
		if description != question.Description {
			fields["description"] = description
		}
	}
	if payload.Tags != nil {
		if encoded := models.EncodeTags(payload.Tags); encoded != question.TagsRaw {
			fields["tags"] = encoded
		}
	}
	if len(fields) == 0 {
		return dto.QuestionResponse{}, kindError(ErrConflict, "no changes to apply")
	}

	updated, err := s.questions.Edit(ctx, repository.ContentEdit{
		ID:     id,
		Fields: fields,
		Revision: models.Revision{
			EditorID:      actor.ID,
			PreviousTitle: question.Title,
			PreviousBody:  question.Description,
			PreviousTags:  question.TagsRaw,
			Reason:        s.plain.Sanitize(payload.Reason),
		},
		At: s.now(),
	})
	if err != nil {
		return dto.QuestionResponse{}, translate(err, "question")
	}

	return dto.NewQuestionResponse(updated, s.votes.VoteOf(ctx, actor, models.ContentQuestion, id)), nil
}

func (s *questionService) Delete(ctx context.Context, actor Actor, id uint, payload dto.DeleteRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return translate(err, "question")
	}
	if err := authorizeMutation(question.AuthorID, actor); err != nil {
		return err
	}

	reason := s.plain.Sanitize(payload.Reason)
	if err := s.questions.SoftDelete(ctx, repository.ContentRemoval{ID: id, ActorID: actor.ID, Reason: reason, At: s.now()}); err != nil {
		return translate(err, "question")
	}

	if question.AuthorID != actor.ID {
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Actor:      actor,
			Action:     ActionContentRemoved,
			EntityType: models.ContentQuestion,
			EntityID:   uintPtr(id),
			Metadata:   map[string]interface{}{"reason": reason, "author_id": question.AuthorID},
		})
		s.notify(ctx, NotificationEvent{
			Type:        models.NotificationContentRemoved,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
			RecipientID: question.AuthorID,
			Target:      models.ContentQuestion,
			Subject:     question.Title,
			Reason:      reason,
			QuestionID:  uintPtr(id),
		})
	}
	return nil
}

func (s *questionService) SetStatus(ctx context.Context, actor Actor, id uint, payload dto.QuestionStatusRequest) (dto.QuestionResponse, error) {
	if !actor.IsAdmin() {
		return dto.QuestionResponse{}, kindError(ErrForbidden, "only administrators can change question status")
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}
	payload.Status = strings.ToLower(strings.TrimSpace(payload.Status))
	if !models.ValidQuestionStatus(payload.Status) {
		return dto.QuestionResponse{}, validation.NewError("status", "must be one of open, closed, duplicate, off-topic")
	}

	previous, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return dto.QuestionResponse{}, translate(err, "question")
	}

	updated, err := s.questions.SetStatus(ctx, id, payload.Status, s.now())
	if err != nil {
		return dto.QuestionResponse{}, translate(err, "question")
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     ActionQuestionStatus,
		EntityType: models.ContentQuestion,
		EntityID:   uintPtr(id),
		Metadata: map[string]interface{}{
			"from":   previous.Status,
			"to":     payload.Status,
			"reason": s.plain.Sanitize(payload.Reason),
		},
	})

	return dto.NewQuestionResponse(updated, s.votes.VoteOf(ctx, actor, models.ContentQuestion, id)), nil
}

func (s *questionService) OfferBounty(ctx context.Context, actor Actor, id uint, payload dto.BountyRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return dto.QuestionResponse{}, translate(err, "question")
	}
	if !actor.Authenticated() {
		return dto.QuestionResponse{}, ErrUnauthenticated
	}
	if question.AuthorID != actor.ID {
		return dto.QuestionResponse{}, kindError(ErrForbidden, "only the question author can offer a bounty")
	}

	now := s.now()
	switch {
	case question.Status != models.QuestionStatusOpen:
		return dto.QuestionResponse{}, kindError(ErrInvalidState, "question is %s", question.Status)
	case question.IsAnswered:
		return dto.QuestionResponse{}, kindError(ErrInvalidState, "question already has an accepted answer")
	case question.HasActiveBounty(now):
		return dto.QuestionResponse{}, kindError(ErrInvalidState, "question already has an active bounty")
	}

	days := payload.Days
	if days == 0 {
		days = defaultBountyDays
	}

	updated, err := s.questions.SetBounty(ctx, id, actor.ID, payload.Amount, now.Add(time.Duration(days)*24*time.Hour))
	if err != nil {
		return dto.QuestionResponse{}, translate(err, "question")
	}

	s.logger.Info().Uint("question_id", id).Int("amount", payload.Amount).Int("days", days).Msg("bounty offered")
	return dto.NewQuestionResponse(updated, s.votes.VoteOf(ctx, actor, models.ContentQuestion, id)), nil
}

func (s *questionService) Revisions(ctx context.Context, id uint) ([]dto.RevisionResponse, error) {
	if _, err := s.questions.FindByID(ctx, id); err != nil {
		return nil, translate(err, "question")
	}
	revisions, err := s.questions.Revisions(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewRevisionResponseSlice(revisions), nil
}

func (s *questionService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
}
