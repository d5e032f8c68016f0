package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

// CommentService exposes comment use-cases.
type CommentService interface {
	Create(ctx context.Context, actor Actor, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	ListByQuestion(ctx context.Context, actor Actor, questionID uint) ([]dto.CommentResponse, error)
	ListByAnswer(ctx context.Context, actor Actor, answerID uint) ([]dto.CommentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.ContentUpdateRequest) (dto.CommentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint, payload dto.DeleteRequest) error
}

// CommentDeps groups the collaborators of the comment service.
type CommentDeps struct {
	Comments  repository.CommentRepository
	Questions repository.QuestionRepository
	Answers   repository.AnswerRepository
	Votes     VoteService
	Notifier  Notifier
	Activity  ActivityRecorder
}

type commentService struct {
	comments  repository.CommentRepository
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	votes     VoteService
	notifier  Notifier
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewCommentService constructs a comment service.
func NewCommentService(deps CommentDeps, validate *validator.Validate, logger zerolog.Logger) CommentService {
	return &commentService{
		comments:  deps.Comments,
		questions: deps.Questions,
		answers:   deps.Answers,
		votes:     deps.Votes,
		notifier:  deps.Notifier,
		activity:  deps.Activity,
		validator: validate,
		logger:    logger.With().Str("component", "comment_service").Logger(),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// commentTarget is the resolved question or answer a comment attaches to.
type commentTarget struct {
	kind       string
	authorID   uint
	subject    string
	questionID uint
	answerID   *uint
}

func (s *commentService) Create(ctx context.Context, actor Actor, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if !actor.Authenticated() {
		return dto.CommentResponse{}, ErrUnauthenticated
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	content, err := sanitizeText(s.sanitizer, "content", payload.Content, minCommentContent, maxCommentContent)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	target, err := s.resolveTarget(ctx, payload.QuestionID, payload.AnswerID)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	var parent *models.Comment
	if payload.ParentID != nil {
		found, err := s.comments.FindByID(ctx, *payload.ParentID)
		if err != nil {
			return dto.CommentResponse{}, translate(err, "parent comment")
		}
		if !sameTarget(found, payload.QuestionID, payload.AnswerID) {
			return dto.CommentResponse{}, validation.NewError("parentId", "must reference a comment on the same question or answer")
		}
		parent = &found
	}

	comment := models.Comment{
		AuthorID:   actor.ID,
		QuestionID: payload.QuestionID,
		AnswerID:   payload.AnswerID,
		ParentID:   payload.ParentID,
		Content:    content,
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	s.logger.Info().Uint("comment_id", comment.ID).Str("target", target.kind).Msg("comment created")
	s.notifyCreated(ctx, actor, comment, target, parent)

	return dto.NewCommentResponse(comment, models.VoteNone), nil
}

// notifyCreated tells the target author about the comment and, for replies,
// the parent author. Someone who is both gets only the reply notification.
func (s *commentService) notifyCreated(ctx context.Context, actor Actor, comment models.Comment, target commentTarget, parent *models.Comment) {
	if s.notifier == nil {
		return
	}

	base := NotificationEvent{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Target:     target.kind,
		QuestionID: uintPtr(target.questionID),
		AnswerID:   target.answerID,
		CommentID:  uintPtr(comment.ID),
	}

	if parent != nil {
		reply := base
		reply.Type = models.NotificationCommentReply
		reply.RecipientID = parent.AuthorID
		reply.Subject = parent.Content
		s.notifier.Notify(ctx, reply)
		if parent.AuthorID == target.authorID {
			return
		}
	}

	received := base
	received.Type = models.NotificationCommentReceived
	received.RecipientID = target.authorID
	received.Subject = target.subject
	s.notifier.Notify(ctx, received)
}

func (s *commentService) resolveTarget(ctx context.Context, questionID, answerID *uint) (commentTarget, error) {
	if questionID != nil {
		question, err := s.questions.FindByID(ctx, *questionID)
		if err != nil {
			return commentTarget{}, translate(err, "question")
		}
		return commentTarget{
			kind:       models.ContentQuestion,
			authorID:   question.AuthorID,
			subject:    question.Title,
			questionID: question.ID,
		}, nil
	}

	answer, err := s.answers.FindByID(ctx, *answerID)
	if err != nil {
		return commentTarget{}, translate(err, "answer")
	}
	if _, err := s.questions.FindByID(ctx, answer.QuestionID); err != nil {
		return commentTarget{}, translate(err, "answer")
	}
	return commentTarget{
		kind:       models.ContentAnswer,
		authorID:   answer.AuthorID,
		subject:    answer.Content,
		questionID: answer.QuestionID,
		answerID:   uintPtr(answer.ID),
	}, nil
}

func sameTarget(parent models.Comment, questionID, answerID *uint) bool {
	switch {
	case questionID != nil:
		return parent.QuestionID != nil && *parent.QuestionID == *questionID
	case answerID != nil:
		return parent.AnswerID != nil && *parent.AnswerID == *answerID
	default:
		return false
	}
}

func (s *commentService) ListByQuestion(ctx context.Context, actor Actor, questionID uint) ([]dto.CommentResponse, error) {
	if _, err := s.questions.FindByID(ctx, questionID); err != nil {
		return nil, translate(err, "question")
	}
	comments, err := s.comments.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return s.withVotes(ctx, actor, comments), nil
}

func (s *commentService) ListByAnswer(ctx context.Context, actor Actor, answerID uint) ([]dto.CommentResponse, error) {
	if _, err := s.answers.FindByID(ctx, answerID); err != nil {
		return nil, translate(err, "answer")
	}
	comments, err := s.comments.ListByAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	return s.withVotes(ctx, actor, comments), nil
}

func (s *commentService) withVotes(ctx context.Context, actor Actor, comments []models.Comment) []dto.CommentResponse {
	ids := make([]uint, 0, len(comments))
	for _, comment := range comments {
		ids = append(ids, comment.ID)
	}
	return dto.NewCommentResponseSlice(comments, s.votes.VotesOf(ctx, actor, models.ContentComment, ids))
}

func (s *commentService) Update(ctx context.Context, actor Actor, id uint, payload dto.ContentUpdateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return dto.CommentResponse{}, translate(err, "comment")
	}
	if err := authorizeMutation(comment.AuthorID, actor); err != nil {
		return dto.CommentResponse{}, err
	}

	content, err := sanitizeText(s.sanitizer, "content", payload.Content, minCommentContent, maxCommentContent)
	if err != nil {
		return dto.CommentResponse{}, err
	}
	if content == comment.Content {
		return dto.CommentResponse{}, kindError(ErrConflict, "no changes to apply")
	}

	updated, err := s.comments.Edit(ctx, repository.ContentEdit{
		ID:     id,
		Fields: map[string]interface{}{"content": content},
		Revision: models.Revision{
			EditorID:     actor.ID,
			PreviousBody: comment.Content,
			Reason:       s.sanitizer.Sanitize(payload.Reason),
		},
		At: s.now(),
	})
	if err != nil {
		return dto.CommentResponse{}, translate(err, "comment")
	}

	return dto.NewCommentResponse(updated, s.votes.VoteOf(ctx, actor, models.ContentComment, id)), nil
}

func (s *commentService) Delete(ctx context.Context, actor Actor, id uint, payload dto.DeleteRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return translate(err, "comment")
	}
	if err := authorizeMutation(comment.AuthorID, actor); err != nil {
		return err
	}

	reason := s.sanitizer.Sanitize(payload.Reason)
	if err := s.comments.SoftDelete(ctx, repository.ContentRemoval{ID: id, ActorID: actor.ID, Reason: reason, At: s.now()}); err != nil {
		return translate(err, "comment")
	}

	if comment.AuthorID != actor.ID {
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Actor:      actor,
			Action:     ActionContentRemoved,
			EntityType: models.ContentComment,
			EntityID:   uintPtr(id),
			Metadata:   map[string]interface{}{"reason": reason, "author_id": comment.AuthorID},
		})
		if s.notifier != nil {
			s.notifier.Notify(ctx, NotificationEvent{
				Type:        models.NotificationContentRemoved,
				ActorID:     actor.ID,
				ActorName:   actor.Name,
				RecipientID: comment.AuthorID,
				Target:      models.ContentComment,
				Subject:     comment.Content,
				Reason:      reason,
				QuestionID:  comment.QuestionID,
				AnswerID:    comment.AnswerID,
				CommentID:   uintPtr(id),
			})
		}
	}
	return nil
}
