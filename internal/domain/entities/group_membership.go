package entities

import (
	"time"

	"github.com/google/uuid"
)

// GroupMembership grants a user shared access to another member's calls.
type GroupMembership struct {
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	GroupID uuid.UUID `json:"group_id" gorm:"type:uuid;primaryKey;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (GroupMembership) TableName() string {
	return "group_memberships"
}
