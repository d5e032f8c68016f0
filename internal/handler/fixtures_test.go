package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/service"
	"github.com/noah-isme/forum-api/internal/validation"
)

type envelope struct {
	Success bool                    `json:"success"`
	Data    json.RawMessage         `json:"data"`
	Details []validation.FieldError `json:"details"`
	Message string                  `json:"message"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

// withCaller simulates the JWT middleware. A zero id leaves the caller a guest.
func withCaller(id uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id != 0 {
			c.Locals(middleware.LocalUserID, id)
			c.Locals(middleware.LocalUserRole, role)
			c.Locals(middleware.LocalUsername, "gopher")
		}
		return c.Next()
	}
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func perform(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var payload envelope
	decodeResponse(t, resp, &payload)
	return resp, payload
}

func multipartRequest(t *testing.T, target, field, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func sampleQuestion(id uint) dto.QuestionResponse {
	return dto.NewQuestionResponse(models.Question{
		ID:          id,
		AuthorID:    7,
		Author:      models.User{ID: 7, Username: "gopher", Role: models.RoleMember},
		Title:       "How do I cancel a context early?",
		Description: "Looking for the idiomatic way to stop sibling goroutines.",
		Tags:        []string{"go", "context"},
		Status:      models.QuestionStatusOpen,
	}, models.VoteNone)
}

type stubQuestions struct {
	service.QuestionService
	listActor service.Actor
	listQuery dto.QuestionListQuery
	created   *dto.QuestionCreateRequest
	viewer    string
	deleted   *dto.DeleteRequest
	detailErr error
	revisions []dto.RevisionResponse
}

func (s *stubQuestions) List(_ context.Context, actor service.Actor, query dto.QuestionListQuery) (dto.QuestionListResponse, error) {
	s.listActor = actor
	s.listQuery = query
	return dto.QuestionListResponse{
		Questions: []dto.QuestionResponse{sampleQuestion(1)},
		Pagination: dto.QuestionPagination{
			Pagination:     dto.NewPagination(1, 10, 1),
			TotalQuestions: 1,
		},
	}, nil
}

func (s *stubQuestions) Create(_ context.Context, _ service.Actor, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	s.created = &payload
	return sampleQuestion(2), nil
}

func (s *stubQuestions) Detail(_ context.Context, _ service.Actor, id uint, viewer string) (dto.QuestionDetailResponse, error) {
	s.viewer = viewer
	if s.detailErr != nil {
		return dto.QuestionDetailResponse{}, s.detailErr
	}
	return dto.QuestionDetailResponse{QuestionResponse: sampleQuestion(id), Answers: []dto.AnswerResponse{}, Comments: []dto.CommentResponse{}}, nil
}

func (s *stubQuestions) Delete(_ context.Context, _ service.Actor, _ uint, payload dto.DeleteRequest) error {
	s.deleted = &payload
	return nil
}

func (s *stubQuestions) Revisions(context.Context, uint) ([]dto.RevisionResponse, error) {
	return s.revisions, nil
}

type stubVotes struct {
	service.VoteService
	targetType string
	targetID   uint
	payload    dto.VoteRequest
	calls      int
}

func (s *stubVotes) Vote(_ context.Context, _ service.Actor, targetType string, targetID uint, payload dto.VoteRequest) (dto.VoteResponse, error) {
	s.calls++
	s.targetType = targetType
	s.targetID = targetID
	s.payload = payload
	return dto.NewVoteResponse(models.VoteCounters{VoteCount: 1, UpvoteCount: 1}, payload.Direction()), nil
}

type stubAnswers struct {
	service.AnswerService
	actor    service.Actor
	accepted uint
	err      error
}

func (s *stubAnswers) Accept(_ context.Context, actor service.Actor, id uint) (dto.AcceptanceResponse, error) {
	s.actor = actor
	s.accepted = id
	if s.err != nil {
		return dto.AcceptanceResponse{}, s.err
	}
	return dto.AcceptanceResponse{}, nil
}

func (s *stubAnswers) ListByQuestion(context.Context, service.Actor, uint) ([]dto.AnswerResponse, error) {
	return []dto.AnswerResponse{}, nil
}

type stubComments struct {
	service.CommentService
	created *dto.CommentCreateRequest
	err     error
}

func (s *stubComments) Create(_ context.Context, _ service.Actor, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	s.created = &payload
	if s.err != nil {
		return dto.CommentResponse{}, s.err
	}
	return dto.CommentResponse{ID: 5, Content: payload.Content}, nil
}
