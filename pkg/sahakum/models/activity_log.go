package models

import "time"

// ActivityLog is an append-only audit record of an administrative action.
// Rows are never updated or deleted through normal operation.
type ActivityLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	ActorID      uint      `gorm:"index;not null" json:"actor_id"`
	Action       string    `gorm:"index;not null" json:"action"` // resource.verb, e.g. "membership.approve"
	ResourceType string    `gorm:"index" json:"resource_type"`
	ResourceID   string    `gorm:"index" json:"resource_id"`
	Description  string    `gorm:"type:text" json:"description"`
	OldValues    string    `gorm:"type:text" json:"old_values,omitempty"` // JSON snapshot
	NewValues    string    `gorm:"type:text" json:"new_values,omitempty"` // JSON snapshot
}
