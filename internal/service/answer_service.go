package service

import (
	"context"
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
)

// AnswerService exposes answer use-cases including the acceptance protocol.
type AnswerService interface {
	Create(ctx context.Context, actor Actor, payload dto.AnswerCreateRequest) (dto.AnswerResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AnswerResponse, error)
	ListByQuestion(ctx context.Context, actor Actor, questionID uint) ([]dto.AnswerResponse, error)
	ListByAuthor(ctx context.Context, actor Actor, authorID uint, page, limit int) (dto.AnswerListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.ContentUpdateRequest) (dto.AnswerResponse, error)
	Delete(ctx context.Context, actor Actor, id uint, payload dto.DeleteRequest) error
	Accept(ctx context.Context, actor Actor, id uint) (dto.AcceptanceResponse, error)
	Unaccept(ctx context.Context, actor Actor, id uint) (dto.AcceptanceResponse, error)
	Revisions(ctx context.Context, id uint) ([]dto.RevisionResponse, error)
}

// AnswerDeps groups the collaborators of the answer service.
type AnswerDeps struct {
	Answers   repository.AnswerRepository
	Questions repository.QuestionRepository
	Votes     VoteService
	Notifier  Notifier
	Activity  ActivityRecorder
}

type answerService struct {
	answers   repository.AnswerRepository
	questions repository.QuestionRepository
	votes     VoteService
	notifier  Notifier
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	plain     *bluemonday.Policy
	content   *bluemonday.Policy
	now       func() time.Time
}

// NewAnswerService constructs an answer service.
func NewAnswerService(deps AnswerDeps, validate *validator.Validate, logger zerolog.Logger) AnswerService {
	return &answerService{
		answers:   deps.Answers,
		questions: deps.Questions,
		votes:     deps.Votes,
		notifier:  deps.Notifier,
		activity:  deps.Activity,
		validator: validate,
		logger:    logger.With().Str("component", "answer_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/forum-api/internal/service/answer"),
		plain:     bluemonday.StrictPolicy(),
		content:   newContentPolicy(),
		now:       time.Now,
	}
}

func (s *answerService) Create(ctx context.Context, actor Actor, payload dto.AnswerCreateRequest) (dto.AnswerResponse, error) {
	if !actor.Authenticated() {
		return dto.AnswerResponse{}, ErrUnauthenticated
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnswerResponse{}, err
	}

	content, err := sanitizeText(s.content, "content", payload.Content, minAnswerContent, maxAnswerContent)
	if err != nil {
		return dto.AnswerResponse{}, err
	}

	question, err := s.questions.FindByID(ctx, payload.QuestionID)
	if err != nil {
		return dto.AnswerResponse{}, translate(err, "question")
	}
	if question.Status != models.QuestionStatusOpen {
		return dto.AnswerResponse{}, kindError(ErrInvalidState, "question is %s and no longer accepts answers", question.Status)
	}

	spanCtx, span := s.tracer.Start(ctx, "answers.create", trace.WithAttributes(
		attribute.Int("answer.question_id", int(question.ID)),
		attribute.Int("answer.author_id", int(actor.ID)),
	))
	defer span.End()

	answer := models.Answer{
		QuestionID: question.ID,
		AuthorID:   actor.ID,
		Content:    content,
		CreatedAt:  s.now(),
	}
	if err := s.answers.Create(spanCtx, &answer); err != nil {
		span.RecordError(err)
		return dto.AnswerResponse{}, translate(err, "question")
	}

	s.logger.Info().Uint("answer_id", answer.ID).Uint("question_id", question.ID).Msg("answer created")
	s.notify(ctx, NotificationEvent{
		Type:        models.NotificationAnswerReceived,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		RecipientID: question.AuthorID,
		Target:      models.ContentQuestion,
		Subject:     question.Title,
		QuestionID:  uintPtr(question.ID),
		AnswerID:    uintPtr(answer.ID),
	})

	return dto.NewAnswerResponse(answer, models.VoteNone), nil
}

func (s *answerService) Get(ctx context.Context, actor Actor, id uint) (dto.AnswerResponse, error) {
	answer, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return dto.AnswerResponse{}, translate(err, "answer")
	}
	if _, err := s.questions.FindByID(ctx, answer.QuestionID); err != nil {
		return dto.AnswerResponse{}, translate(err, "answer")
	}
	return dto.NewAnswerResponse(answer, s.votes.VoteOf(ctx, actor, models.ContentAnswer, id)), nil
}

func (s *answerService) ListByQuestion(ctx context.Context, actor Actor, questionID uint) ([]dto.AnswerResponse, error) {
	if _, err := s.questions.FindByID(ctx, questionID); err != nil {
		return nil, translate(err, "question")
	}
	answers, err := s.answers.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return dto.NewAnswerResponseSlice(answers, s.votes.VotesOf(ctx, actor, models.ContentAnswer, answerIDs(answers))), nil
}

func (s *answerService) ListByAuthor(ctx context.Context, actor Actor, authorID uint, page, limit int) (dto.AnswerListResponse, error) {
	page, limit = dto.NormalizePage(page, limit, 10, 50)
	answers, total, err := s.answers.List(ctx, repository.AnswerFilter{Page: page, Limit: limit, AuthorID: &authorID})
	if err != nil {
		return dto.AnswerListResponse{}, err
	}
	return dto.AnswerListResponse{
		Answers: dto.NewAnswerResponseSlice(answers, s.votes.VotesOf(ctx, actor, models.ContentAnswer, answerIDs(answers))),
		Pagination: dto.AnswerPagination{
			Pagination:   dto.NewPagination(page, limit, total),
			TotalAnswers: total,
		},
	}, nil
}

func (s *answerService) Update(ctx context.Context, actor Actor, id uint, payload dto.ContentUpdateRequest) (dto.AnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnswerResponse{}, err
	}

	answer, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return dto.AnswerResponse{}, translate(err, "answer")
	}
	if err := authorizeMutation(answer.AuthorID, actor); err != nil {
		return dto.AnswerResponse{}, err
	}

	content, err := sanitizeText(s.content, "content", payload.Content, minAnswerContent, maxAnswerContent)
	if err != nil {
		return dto.AnswerResponse{}, err
	}
	if content == answer.Content {
		return dto.AnswerResponse{}, kindError(ErrConflict, "no changes to apply")
	}

	updated, err := s.answers.Edit(ctx, repository.ContentEdit{
		ID:     id,
		Fields: map[string]interface{}{"content": content},
		Revision: models.Revision{
			EditorID:     actor.ID,
			PreviousBody: answer.Content,
			Reason:       s.plain.Sanitize(payload.Reason),
		},
		At: s.now(),
	})
	if err != nil {
		return dto.AnswerResponse{}, translate(err, "answer")
	}

	return dto.NewAnswerResponse(updated, s.votes.VoteOf(ctx, actor, models.ContentAnswer, id)), nil
}

func (s *answerService) Delete(ctx context.Context, actor Actor, id uint, payload dto.DeleteRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	answer, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return translate(err, "answer")
	}
	if err := authorizeMutation(answer.AuthorID, actor); err != nil {
		return err
	}

	reason := s.plain.Sanitize(payload.Reason)
	if err := s.answers.SoftDelete(ctx, repository.ContentRemoval{ID: id, ActorID: actor.ID, Reason: reason, At: s.now()}); err != nil {
		return translate(err, "answer")
	}

	if answer.AuthorID != actor.ID {
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Actor:      actor,
			Action:     ActionContentRemoved,
			EntityType: models.ContentAnswer,
			EntityID:   uintPtr(id),
			Metadata:   map[string]interface{}{"reason": reason, "author_id": answer.AuthorID},
		})
		s.notify(ctx, NotificationEvent{
			Type:        models.NotificationContentRemoved,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
			RecipientID: answer.AuthorID,
			Target:      models.ContentAnswer,
			Subject:     answer.Content,
			Reason:      reason,
			QuestionID:  uintPtr(answer.QuestionID),
			AnswerID:    uintPtr(id),
		})
	}
	return nil
}

// Accept marks the answer as accepted. Only the question author may accept;
// accepting the current accepted answer again succeeds without side effects.
func (s *answerService) Accept(ctx context.Context, actor Actor, id uint) (dto.AcceptanceResponse, error) {
	answer, question, err := s.loadForAcceptance(ctx, actor, id)
	if err != nil {
		return dto.AcceptanceResponse{}, err
	}

	if answer.IsAccepted && question.AcceptedAnswerID != nil && *question.AcceptedAnswerID == answer.ID {
		return dto.NewAcceptanceResponse(answer, question), nil
	}

	spanCtx, span := s.tracer.Start(ctx, "answers.accept", trace.WithAttributes(
		attribute.Int("answer.id", int(id)),
		attribute.Int("answer.question_id", int(question.ID)),
	))
	defer span.End()

	accepted, updated, err := s.answers.Accept(spanCtx, id, actor.ID, question.Version, s.now())
	if err != nil {
		span.RecordError(err)
		return dto.AcceptanceResponse{}, translate(err, "question")
	}

	s.logger.Info().Uint("answer_id", id).Uint("question_id", question.ID).Msg("answer accepted")
	s.notify(ctx, NotificationEvent{
		Type:        models.NotificationAnswerAccepted,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		RecipientID: accepted.AuthorID,
		Target:      models.ContentAnswer,
		Subject:     question.Title,
		QuestionID:  uintPtr(question.ID),
		AnswerID:    uintPtr(id),
	})

	return dto.NewAcceptanceResponse(accepted, updated), nil
}

// Unaccept clears the acceptance. It fails with ErrInvalidState when the answer
// is not the question's accepted answer.
func (s *answerService) Unaccept(ctx context.Context, actor Actor, id uint) (dto.AcceptanceResponse, error) {
	answer, question, err := s.loadForAcceptance(ctx, actor, id)
	if err != nil {
		return dto.AcceptanceResponse{}, err
	}

	if question.AcceptedAnswerID == nil || *question.AcceptedAnswerID != answer.ID {
		return dto.AcceptanceResponse{}, kindError(ErrInvalidState, "answer is not the accepted answer")
	}

	released, updated, err := s.answers.Unaccept(ctx, id, question.Version, s.now())
	if err != nil {
		return dto.AcceptanceResponse{}, translate(err, "question")
	}

	s.logger.Info().Uint("answer_id", id).Uint("question_id", question.ID).Msg("answer unaccepted")
	s.notify(ctx, NotificationEvent{
		Type:        models.NotificationAnswerUnaccepted,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		RecipientID: released.AuthorID,
		Target:      models.ContentAnswer,
		Subject:     question.Title,
		QuestionID:  uintPtr(question.ID),
		AnswerID:    uintPtr(id),
	})

	return dto.NewAcceptanceResponse(released, updated), nil
}

func (s *answerService) loadForAcceptance(ctx context.Context, actor Actor, id uint) (models.Answer, models.Question, error) {
	if !actor.Authenticated() {
		return models.Answer{}, models.Question{}, ErrUnauthenticated
	}

	answer, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return models.Answer{}, models.Question{}, translate(err, "answer")
	}
	question, err := s.questions.FindByID(ctx, answer.QuestionID)
	if err != nil {
		return models.Answer{}, models.Question{}, translate(err, "question")
	}
	if question.AuthorID != actor.ID {
		return models.Answer{}, models.Question{}, kindError(ErrForbidden, "only the question author can change the accepted answer")
	}
	return answer, question, nil
}

func (s *answerService) Revisions(ctx context.Context, id uint) ([]dto.RevisionResponse, error) {
	if _, err := s.answers.FindByID(ctx, id); err != nil {
		return nil, translate(err, "answer")
	}
	revisions, err := s.answers.Revisions(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewRevisionResponseSlice(revisions), nil
}

func (s *answerService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
}

func answerIDs(answers []models.Answer) []uint {
	ids := make([]uint, 0, len(answers))
	for _, answer := range answers {
		ids = append(ids, answer.ID)
	}
	return ids
}
