package dto

import "github.com/noah-isme/forum-api/internal/models"

// Vote types accepted by the vote endpoints.
const (
	VoteTypeUpvote   = "upvote"
	VoteTypeDownvote = "downvote"
	VoteTypeRemove   = "remove"
)

// VoteRequest casts, switches or removes the caller's vote.
type VoteRequest struct {
	VoteType string `json:"voteType" validate:"required,oneof=upvote downvote remove"`
}

// Direction converts the request vote type into a ledger direction.
func (r VoteRequest) Direction() models.VoteDirection {
	switch r.VoteType {
	case VoteTypeUpvote:
		return models.VoteUp
	case VoteTypeDownvote:
		return models.VoteDown
	default:
		return models.VoteNone
	}
}

// VoteResponse reports the record's tally and the caller's resulting vote.
type VoteResponse struct {
	VoteCount int     `json:"voteCount"`
	Upvotes   int     `json:"upvotes"`
	Downvotes int     `json:"downvotes"`
	UserVote  *string `json:"userVote"`
}

// NewVoteResponse builds a response from ledger counters.
func NewVoteResponse(counters models.VoteCounters, direction models.VoteDirection) VoteResponse {
	return VoteResponse{
		VoteCount: counters.VoteCount,
		Upvotes:   counters.UpvoteCount,
		Downvotes: counters.DownvoteCount,
		UserVote:  VoteLabel(direction),
	}
}

// VoteLabel renders a ledger direction as the API vote type, nil when there is no vote.
func VoteLabel(direction models.VoteDirection) *string {
	var label string
	switch direction {
	case models.VoteUp:
		label = VoteTypeUpvote
	case models.VoteDown:
		label = VoteTypeDownvote
	default:
		return nil
	}
	return &label
}
