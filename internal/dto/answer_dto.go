package dto

import (
	"time"

	"github.com/noah-isme/forum-api/internal/models"
)

// AnswerCreateRequest posts an answer to a question.
type AnswerCreateRequest struct {
	Content    string `json:"content" validate:"required,min=20,max=30000"`
	QuestionID uint   `json:"questionId" validate:"required"`
}

// ContentUpdateRequest edits the body of an answer or comment.
type ContentUpdateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=30000"`
	Reason  string `json:"reason" validate:"omitempty,max=500"`
}

// AnswerResponse is the API representation of an answer.
type AnswerResponse struct {
	ID         uint        `json:"id"`
	QuestionID uint        `json:"questionId"`
	Content    string      `json:"content"`
	Author     UserSummary `json:"author"`
	VoteCount  int         `json:"voteCount"`
	Upvotes    int         `json:"upvotes"`
	Downvotes  int         `json:"downvotes"`
	IsAccepted bool        `json:"isAccepted"`
	AcceptedAt *time.Time  `json:"acceptedAt,omitempty"`
	AcceptedBy *uint       `json:"acceptedBy,omitempty"`
	IsEdited   bool        `json:"isEdited"`
	EditedAt   *time.Time  `json:"editedAt,omitempty"`
	UserVote   *string     `json:"userVote"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// NewAnswerResponse converts an answer model with the caller's vote.
func NewAnswerResponse(model models.Answer, vote models.VoteDirection) AnswerResponse {
	return AnswerResponse{
		ID:         model.ID,
		QuestionID: model.QuestionID,
		Content:    model.Content,
		Author:     NewUserSummary(model.Author),
		VoteCount:  model.VoteCount,
		Upvotes:    model.UpvoteCount,
		Downvotes:  model.DownvoteCount,
		IsAccepted: model.IsAccepted,
		AcceptedAt: model.AcceptedAt,
		AcceptedBy: model.AcceptedBy,
		IsEdited:   model.IsEdited,
		EditedAt:   model.EditedAt,
		UserVote:   VoteLabel(vote),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewAnswerResponseSlice converts answers, looking up the caller's vote per answer.
func NewAnswerResponseSlice(items []models.Answer, votes map[uint]models.VoteDirection) []AnswerResponse {
	out := make([]AnswerResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAnswerResponse(item, votes[item.ID]))
	}
	return out
}

// AcceptanceResponse reports both sides of an accept/unaccept transition.
type AcceptanceResponse struct {
	Answer   AnswerResponse `json:"answer"`
	Question struct {
		ID             uint  `json:"id"`
		IsAnswered     bool  `json:"isAnswered"`
		AcceptedAnswer *uint `json:"acceptedAnswer"`
	} `json:"question"`
}

// NewAcceptanceResponse builds the acceptance transition payload.
func NewAcceptanceResponse(answer models.Answer, question models.Question) AcceptanceResponse {
	var response AcceptanceResponse
	response.Answer = NewAnswerResponse(answer, models.VoteNone)
	response.Question.ID = question.ID
	response.Question.IsAnswered = question.IsAnswered
	response.Question.AcceptedAnswer = question.AcceptedAnswerID
	return response
}

// AnswerPagination adds the answer total to page metadata.
type AnswerPagination struct {
	Pagination
	TotalAnswers int64 `json:"totalAnswers"`
}

// AnswerListResponse wraps a page of answers.
type AnswerListResponse struct {
	Answers    []AnswerResponse `json:"answers"`
	Pagination AnswerPagination `json:"pagination"`
}
