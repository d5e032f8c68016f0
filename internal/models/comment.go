package models

import "time"

// Comment attaches to exactly one question or answer and may reply to another comment.
type Comment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	AuthorID   uint   `gorm:"not null;index" json:"author_id"`
	Author     User   `gorm:"foreignKey:AuthorID" json:"author"`
	QuestionID *uint  `gorm:"index" json:"question_id"`
	AnswerID   *uint  `gorm:"index" json:"answer_id"`
	ParentID   *uint  `gorm:"index" json:"parent_id"`
	Content    string `gorm:"type:text;not null" json:"content"`
	VoteCounters
	SoftDelete
	EditTrail
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
