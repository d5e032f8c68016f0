package dto

import (
	"time"

	"github.com/noah-isme/forum-api/internal/models"
)

// Question list sort orders.
const (
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortVotes      = "votes"
	SortViews      = "views"
	SortUnanswered = "unanswered"
)

// QuestionCreateRequest is the payload to ask a question.
type QuestionCreateRequest struct {
	Title       string   `json:"title" validate:"required,min=10,max=300"`
	Description string   `json:"description" validate:"required,min=20,max=30000"`
	Tags        []string `json:"tags" validate:"required,min=1,max=5,dive,min=2,max=20,forumtag"`
}

// QuestionUpdateRequest edits a question. Nil fields are left untouched.
type QuestionUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=10,max=300"`
	Description *string  `json:"description" validate:"omitempty,min=20,max=30000"`
	Tags        []string `json:"tags" validate:"omitempty,min=1,max=5,dive,min=2,max=20,forumtag"`
	Reason      string   `json:"reason" validate:"omitempty,max=500"`
}

// QuestionListQuery filters and orders the question listing.
type QuestionListQuery struct {
	Page   int    `validate:"gte=0"`
	Limit  int    `validate:"gte=0,lte=50"`
	Sort   string `validate:"omitempty,oneof=newest oldest votes views unanswered"`
	Tag    string `validate:"omitempty,max=20"`
	Search string `validate:"omitempty,max=200"`
}

// QuestionStatusRequest changes a question's moderation status.
type QuestionStatusRequest struct {
	Status string `json:"status" validate:"required,max=16"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// BountyRequest offers a bounty on a question.
type BountyRequest struct {
	Amount int `json:"amount" validate:"required,min=50,max=500"`
	Days   int `json:"days" validate:"omitempty,min=1,max=14"`
}

// DeleteRequest carries an optional removal reason.
type DeleteRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// BountyResponse describes a running or expired bounty.
type BountyResponse struct {
	Amount    int        `json:"amount"`
	ExpiresAt *time.Time `json:"expiresAt"`
	OfferedBy *uint      `json:"offeredBy"`
}

// QuestionResponse is the list/detail representation of a question.
type QuestionResponse struct {
	ID               uint            `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Tags             []string        `json:"tags"`
	Author           UserSummary     `json:"author"`
	Views            int64           `json:"views"`
	VoteCount        int             `json:"voteCount"`
	Upvotes          int             `json:"upvotes"`
	Downvotes        int             `json:"downvotes"`
	AnswerCount      int             `json:"answerCount"`
	IsAnswered       bool            `json:"isAnswered"`
	AcceptedAnswerID *uint           `json:"acceptedAnswer"`
	Status           string          `json:"status"`
	Bounty           *BountyResponse `json:"bounty,omitempty"`
	IsEdited         bool            `json:"isEdited"`
	EditedAt         *time.Time      `json:"editedAt,omitempty"`
	UserVote         *string         `json:"userVote"`
	LastActivityAt   time.Time       `json:"lastActivityAt"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewQuestionResponse converts a question model with the caller's vote.
func NewQuestionResponse(model models.Question, vote models.VoteDirection) QuestionResponse {
	response := QuestionResponse{
		ID:               model.ID,
		Title:            model.Title,
		Description:      model.Description,
		Tags:             model.Tags,
		Author:           NewUserSummary(model.Author),
		Views:            model.Views,
		VoteCount:        model.VoteCount,
		Upvotes:          model.UpvoteCount,
		Downvotes:        model.DownvoteCount,
		AnswerCount:      model.AnswerCount,
		IsAnswered:       model.IsAnswered,
		AcceptedAnswerID: model.AcceptedAnswerID,
		Status:           model.Status,
		IsEdited:         model.IsEdited,
		EditedAt:         model.EditedAt,
		UserVote:         VoteLabel(vote),
		LastActivityAt:   model.LastActivityAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	if response.Tags == nil {
		response.Tags = []string{}
	}
	if model.BountyAmount > 0 {
		response.Bounty = &BountyResponse{
			Amount:    model.BountyAmount,
			ExpiresAt: model.BountyExpiresAt,
			OfferedBy: model.BountyOfferedBy,
		}
	}
	return response
}

// QuestionDetailResponse adds the visible answers and comments to a question.
type QuestionDetailResponse struct {
	QuestionResponse
	Answers  []AnswerResponse  `json:"answers"`
	Comments []CommentResponse `json:"comments"`
}

// QuestionPagination adds the question total to page metadata.
type QuestionPagination struct {
	Pagination
	TotalQuestions int64 `json:"totalQuestions"`
}

// QuestionListResponse wraps a page of questions.
type QuestionListResponse struct {
	Questions  []QuestionResponse `json:"questions"`
	Pagination QuestionPagination `json:"pagination"`
}

// RevisionResponse is one entry of an edit history.
type RevisionResponse struct {
	ID            uint      `json:"id"`
	EditorID      uint      `json:"editorId"`
	PreviousTitle string    `json:"previousTitle,omitempty"`
	PreviousBody  string    `json:"previousContent"`
	PreviousTags  []string  `json:"previousTags,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewRevisionResponseSlice converts revisions to DTOs.
func NewRevisionResponseSlice(items []models.Revision) []RevisionResponse {
	out := make([]RevisionResponse, 0, len(items))
	for _, item := range items {
		response := RevisionResponse{
			ID:            item.ID,
			EditorID:      item.EditorID,
			PreviousTitle: item.PreviousTitle,
			PreviousBody:  item.PreviousBody,
			Reason:        item.Reason,
			CreatedAt:     item.CreatedAt,
		}
		if item.PreviousTags != "" {
			response.PreviousTags = models.DecodeTags(item.PreviousTags)
		}
		out = append(out, response)
	}
	return out
}
