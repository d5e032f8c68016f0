package models

import "time"

// SoftDelete hides a record from reads while keeping it for audit.
type SoftDelete struct {
	IsDeleted    bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedBy    *uint      `json:"deleted_by,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeleteReason string     `gorm:"size:500" json:"delete_reason,omitempty"`
}

// MarkDeleted fills the envelope for a removal by actorID.
func (s *SoftDelete) MarkDeleted(actorID uint, reason string, at time.Time) {
	s.IsDeleted = true
	s.DeletedBy = &actorID
	s.DeletedAt = &at
	s.DeleteReason = reason
}

// Columns returns the envelope as a column update set.
func (s SoftDelete) Columns() map[string]interface{} {
	return map[string]interface{}{
		"is_deleted":    s.IsDeleted,
		"deleted_by":    s.DeletedBy,
		"deleted_at":    s.DeletedAt,
		"delete_reason": s.DeleteReason,
	}
}

// EditTrail flags records that were changed after creation. The full history
// lives in content_revisions.
type EditTrail struct {
	IsEdited bool       `gorm:"not null;default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`
	EditedBy *uint      `json:"edited_by,omitempty"`
}

// MarkEdited records the latest edit.
func (e *EditTrail) MarkEdited(editorID uint, at time.Time) {
	e.IsEdited = true
	e.EditedAt = &at
	e.EditedBy = &editorID
}

// Columns returns the trail as a column update set.
func (e EditTrail) Columns() map[string]interface{} {
	return map[string]interface{}{
		"is_edited": e.IsEdited,
		"edited_at": e.EditedAt,
		"edited_by": e.EditedBy,
	}
}

// VoteCounters are derived from the votes ledger and rewritten on every vote.
type VoteCounters struct {
	UpvoteCount   int `gorm:"not null;default:0" json:"upvote_count"`
	DownvoteCount int `gorm:"not null;default:0" json:"downvote_count"`
	VoteCount     int `gorm:"not null;default:0;index" json:"vote_count"`
}

// Content types share the votes and revisions tables.
const (
	ContentQuestion = "question"
	ContentAnswer   = "answer"
	ContentComment  = "comment"
)

// ContentTable maps a content type to its table name.
func ContentTable(contentType string) (string, bool) {
	switch contentType {
	case ContentQuestion:
		return "questions", true
	case ContentAnswer:
		return "answers", true
	case ContentComment:
		return "comments", true
	default:
		return "", false
	}
}

// Revision is one entry in a content record's edit history.
type Revision struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContentType   string    `gorm:"size:16;not null;index:idx_revision_content" json:"content_type"`
	ContentID     uint      `gorm:"not null;index:idx_revision_content" json:"content_id"`
	EditorID      uint      `gorm:"not null" json:"editor_id"`
	PreviousTitle string    `gorm:"size:300" json:"previous_title,omitempty"`
	PreviousBody  string    `gorm:"type:text" json:"previous_body"`
	PreviousTags  string    `gorm:"type:text" json:"-"`
	Reason        string    `gorm:"size:500" json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName keeps revisions in a dedicated table shared by all content types.
func (Revision) TableName() string {
	return "content_revisions"
}
