package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptEmbedding is the durable half of the embedding cache,
// keyed by the content hash of normalized transcript text.
type TranscriptEmbedding struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID      uuid.UUID `json:"call_id" gorm:"type:uuid;not null;index"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	ContentHash string    `json:"content_hash" gorm:"type:varchar(64);not null;uniqueIndex"`
	Vector      []float32 `json:"vector" gorm:"type:jsonb;serializer:json"`
	Model       string    `json:"model" gorm:"type:varchar(100)"`
	TokenCount  int       `json:"token_count,omitempty"`
	Kind        string    `json:"kind,omitempty" gorm:"type:varchar(50)"` // e.g. "transcript"

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptEmbedding) TableName() string {
	return "transcript_embeddings"
}

// IsStale reports whether the stored vector is older than ttl.
func (e *TranscriptEmbedding) IsStale(ttl time.Duration) bool {
	return time.Since(e.CreatedAt) > ttl
}
