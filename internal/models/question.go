package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Question status values.
const (
	QuestionStatusOpen      = "open"
	QuestionStatusClosed    = "closed"
	QuestionStatusDuplicate = "duplicate"
	QuestionStatusOffTopic  = "off-topic"
)

// Question is the root content record of a thread.
type Question struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	AuthorID         uint       `gorm:"not null;index" json:"author_id"`
	Author           User       `gorm:"foreignKey:AuthorID" json:"author"`
	Title            string     `gorm:"type:text;not null" json:"title"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	TagsRaw          string     `gorm:"column:tags;type:text" json:"-"`
	Tags             []string   `gorm:"-" json:"tags"`
	Views            int64      `gorm:"not null;default:0" json:"views"`
	AnswerCount      int        `gorm:"not null;default:0" json:"answer_count"`
	IsAnswered       bool       `gorm:"not null;default:false;index" json:"is_answered"`
	AcceptedAnswerID *uint      `json:"accepted_answer_id"`
	Status           string     `gorm:"size:16;not null;default:open;index" json:"status"`
	BountyAmount     int        `gorm:"not null;default:0" json:"bounty_amount"`
	BountyExpiresAt  *time.Time `json:"bounty_expires_at"`
	BountyOfferedBy  *uint      `json:"bounty_offered_by"`
	Version          int        `gorm:"not null;default:0" json:"version"`
	LastActivityAt   time.Time  `gorm:"index" json:"last_activity_at"`
	VoteCounters
	SoftDelete
	EditTrail
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate normalises tag data before the first insert. Later edits write
// the tags column explicitly.
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	q.TagsRaw = EncodeTags(q.Tags)
	if q.LastActivityAt.IsZero() {
		q.LastActivityAt = time.Now()
	}
	return nil
}

// AfterFind hydrates tag list after retrieval.
func (q *Question) AfterFind(tx *gorm.DB) error {
	q.Tags = DecodeTags(q.TagsRaw)
	return nil
}

// HasActiveBounty reports whether a bounty is still running at the given instant.
func (q Question) HasActiveBounty(now time.Time) bool {
	return q.BountyAmount > 0 && q.BountyExpiresAt != nil && q.BountyExpiresAt.After(now)
}

// ValidQuestionStatus reports whether status is a known question status.
func ValidQuestionStatus(status string) bool {
	switch status {
	case QuestionStatusOpen, QuestionStatusClosed, QuestionStatusDuplicate, QuestionStatusOffTopic:
		return true
	default:
		return false
	}
}

// EncodeTags stores tags as "|a|b|" so a single tag can be matched with LIKE.
func EncodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(strings.ToLower(tag))
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

// DecodeTags reverses EncodeTags.
func DecodeTags(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		tags = append(tags, trimmed)
	}
	return tags
}
