package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/database"
	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event NotificationEvent) {
	if _, ok := BuildNotification(event); !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

func (r *recordingNotifier) last() NotificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type activityStub struct {
	entries []ActivityEntry
}

func (a *activityStub) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	a.entries = append(a.entries, entry)
	return dto.ActivityResponse{Action: entry.Action}, nil
}

// forum wires the content services against an in-memory database.
type forum struct {
	db        *gorm.DB
	users     repository.UserRepository
	notifier  *recordingNotifier
	activity  *activityStub
	votes     VoteService
	questions QuestionService
	answers   AnswerService
	comments  CommentService
}

func newForum(t *testing.T) *forum {
	t.Helper()
	db := setupServiceDB(t)
	validate := validation.New()
	notifier := &recordingNotifier{}
	activity := &activityStub{}

	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	votes := NewVoteService(repository.NewVoteRepository(db), notifier, validate, true, testLogger())

	return &forum{
		db:       db,
		users:    repository.NewUserRepository(db),
		notifier: notifier,
		activity: activity,
		votes:    votes,
		questions: NewQuestionService(QuestionDeps{
			Questions: questionRepo,
			Answers:   answerRepo,
			Comments:  commentRepo,
			Votes:     votes,
			Notifier:  notifier,
			Activity:  activity,
		}, validate, testLogger()),
		answers: NewAnswerService(AnswerDeps{
			Answers:   answerRepo,
			Questions: questionRepo,
			Votes:     votes,
			Notifier:  notifier,
			Activity:  activity,
		}, validate, testLogger()),
		comments: NewCommentService(CommentDeps{
			Comments:  commentRepo,
			Questions: questionRepo,
			Answers:   answerRepo,
			Votes:     votes,
			Notifier:  notifier,
			Activity:  activity,
		}, validate, testLogger()),
	}
}

func (f *forum) member(t *testing.T, username string) Actor {
	return f.account(t, username, models.RoleMember)
}

func (f *forum) admin(t *testing.T, username string) Actor {
	return f.account(t, username, models.RoleAdmin)
}

func (f *forum) account(t *testing.T, username, role string) Actor {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, f.users.Create(context.Background(), &user))
	return Actor{ID: user.ID, Role: user.Role, Name: user.Username}
}

func (f *forum) ask(t *testing.T, author Actor) dto.QuestionResponse {
	t.Helper()
	question, err := f.questions.Create(context.Background(), author, dto.QuestionCreateRequest{
		Title:       "How do I cancel a context early?",
		Description: "I want to stop a goroutine pipeline when the first error happens.",
		Tags:        []string{"Go", "context"},
	})
	require.NoError(t, err)
	return question
}

func (f *forum) answer(t *testing.T, author Actor, questionID uint) dto.AnswerResponse {
	t.Helper()
	answer, err := f.answers.Create(context.Background(), author, dto.AnswerCreateRequest{
		QuestionID: questionID,
		Content:    "Use errgroup.WithContext and return the first error from Wait.",
	})
	require.NoError(t, err)
	return answer
}
