package models

import "time"

// VoteDirection is the signed value a voter contributes to a record.
type VoteDirection int

// Vote directions. VoteNone is never stored; it means "no ledger row".
const (
	VoteDown VoteDirection = -1
	VoteNone VoteDirection = 0
	VoteUp   VoteDirection = 1
)

// Vote is one ledger row keyed by (target, voter). The unique index keeps a
// voter in at most one of the up/down sets.
type Vote struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	TargetType string        `gorm:"size:16;not null;uniqueIndex:idx_vote_target_voter,priority:1" json:"target_type"`
	TargetID   uint          `gorm:"not null;uniqueIndex:idx_vote_target_voter,priority:2" json:"target_id"`
	VoterID    uint          `gorm:"not null;uniqueIndex:idx_vote_target_voter,priority:3;index" json:"voter_id"`
	Direction  VoteDirection `gorm:"not null" json:"direction"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
