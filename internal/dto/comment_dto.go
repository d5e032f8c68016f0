package dto

import (
	"time"

	"github.com/noah-isme/forum-api/internal/models"
)

// CommentCreateRequest adds a comment to exactly one question or answer.
type CommentCreateRequest struct {
	Content    string `json:"content" validate:"required,min=15,max=500"`
	QuestionID *uint  `json:"questionId" validate:"required_without=AnswerID,excluded_with=AnswerID"`
	AnswerID   *uint  `json:"answerId"`
	ParentID   *uint  `json:"parentId"`
}

// CommentResponse is the API representation of a comment.
type CommentResponse struct {
	ID         uint        `json:"id"`
	Content    string      `json:"content"`
	Author     UserSummary `json:"author"`
	QuestionID *uint       `json:"questionId,omitempty"`
	AnswerID   *uint       `json:"answerId,omitempty"`
	ParentID   *uint       `json:"parentId,omitempty"`
	VoteCount  int         `json:"voteCount"`
	Upvotes    int         `json:"upvotes"`
	Downvotes  int         `json:"downvotes"`
	IsEdited   bool        `json:"isEdited"`
	EditedAt   *time.Time  `json:"editedAt,omitempty"`
	UserVote   *string     `json:"userVote"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// NewCommentResponse converts a comment model with the caller's vote.
func NewCommentResponse(model models.Comment, vote models.VoteDirection) CommentResponse {
	return CommentResponse{
		ID:         model.ID,
		Content:    model.Content,
		Author:     NewUserSummary(model.Author),
		QuestionID: model.QuestionID,
		AnswerID:   model.AnswerID,
		ParentID:   model.ParentID,
		VoteCount:  model.VoteCount,
		Upvotes:    model.UpvoteCount,
		Downvotes:  model.DownvoteCount,
		IsEdited:   model.IsEdited,
		EditedAt:   model.EditedAt,
		UserVote:   VoteLabel(vote),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewCommentResponseSlice converts comments, looking up the caller's vote per comment.
func NewCommentResponseSlice(items []models.Comment, votes map[uint]models.VoteDirection) []CommentResponse {
	out := make([]CommentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewCommentResponse(item, votes[item.ID]))
	}
	return out
}
