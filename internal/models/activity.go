package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one moderation audit entry: a ban, a role change, a status
// change or a removal. EntityType uses the same vocabulary as vote targets
// plus "user".
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:16;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:16;not null;index:idx_activity_entity,priority:1" json:"entity_type"`
	EntityID   *uint             `gorm:"index:idx_activity_entity,priority:2" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

// Audited entity types outside the content tables.
const EntityUser = "user"

// TableName pins the audit table name.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
