package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CallDirection distinguishes who initiated the call.
type CallDirection string

const (
	CallDirectionInbound  CallDirection = "inbound"
	CallDirectionOutbound CallDirection = "outbound"
)

// Call is the source record for a recorded phone call. Rows are created
// by the ingestion flow; the transcription pipeline only reads them.
type Call struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID         uuid.UUID     `json:"owner_id" gorm:"type:uuid;not null;index"`
	TeamID          *uuid.UUID    `json:"team_id,omitempty" gorm:"type:uuid;index"`
	RecordingObject string        `json:"recording_object,omitempty" gorm:"type:text"` // object-store key, empty when no recording exists
	Direction       CallDirection `json:"direction" gorm:"type:varchar(20);not null;default:'inbound'"`
	DurationSeconds int           `json:"duration_seconds" gorm:"type:integer;default:0"`

	// Metadata is the raw telephony payload (caller/callee numbers,
	// provider SID) as delivered by the ingestion webhook.
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Call) TableName() string {
	return "calls"
}

// HasRecording reports whether an audio object exists for this call.
func (c *Call) HasRecording() bool {
	return c.RecordingObject != ""
}
