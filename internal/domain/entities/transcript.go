package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptStatus mirrors the owning job's outcome on the transcript row.
type TranscriptStatus string

const (
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusCompleted  TranscriptStatus = "completed"
	TranscriptStatusFailed     TranscriptStatus = "failed"
)

// Segment is a contiguous timestamped piece of the transcript, used for
// playback alignment.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the stored transcription result, upserted by call id.
// A completed status implies a non-empty corrected text.
type Transcript struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID  uuid.UUID `json:"call_id" gorm:"type:uuid;not null;uniqueIndex"`
	OwnerID uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`

	RawText       string `json:"raw_text,omitempty" gorm:"type:text"`       // verbatim provider output
	CorrectedText string `json:"corrected_text,omitempty" gorm:"type:text"` // post-correction, user-editable
	DisplayText   string `json:"display_text,omitempty" gorm:"type:text"`   // legacy column, mirrors corrected text

	Status           TranscriptStatus `json:"status" gorm:"type:varchar(50);not null;index"`
	ConfidenceScore  float64          `json:"confidence_score"`
	Language         string           `json:"language,omitempty" gorm:"type:varchar(20)"`
	WasTranslated    bool             `json:"was_translated" gorm:"default:false"`
	OriginalLanguage string           `json:"original_language,omitempty" gorm:"type:varchar(20)"`

	Segments         []Segment `json:"segments,omitempty" gorm:"type:jsonb;serializer:json"`
	ProcessingTimeMs int64     `json:"processing_time_ms,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a transcript shell for a call.
func NewTranscript(callID, ownerID uuid.UUID) *Transcript {
	return &Transcript{
		ID:        uuid.New(),
		CallID:    callID,
		OwnerID:   ownerID,
		Status:    TranscriptStatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
