package models

import "time"

// Answer is a response to a question. At most one answer per question is accepted.
type Answer struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	QuestionID uint       `gorm:"not null;index" json:"question_id"`
	AuthorID   uint       `gorm:"not null;index" json:"author_id"`
	Author     User       `gorm:"foreignKey:AuthorID" json:"author"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	IsAccepted bool       `gorm:"not null;default:false;index" json:"is_accepted"`
	AcceptedAt *time.Time `json:"accepted_at"`
	AcceptedBy *uint      `json:"accepted_by"`
	VoteCounters
	SoftDelete
	EditTrail
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
