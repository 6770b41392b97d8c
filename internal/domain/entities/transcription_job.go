package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TranscriptionJobStatus represents the status of a transcription job
type TranscriptionJobStatus string

const (
	JobStatusPending    TranscriptionJobStatus = "pending"    // Waiting to be picked up by a worker
	JobStatusProcessing TranscriptionJobStatus = "processing" // Pipeline attempt in flight
	JobStatusCompleted  TranscriptionJobStatus = "completed"  // Transcript persisted
	JobStatusFailed     TranscriptionJobStatus = "failed"     // Attempt failed, may or may not be retryable
	JobStatusCancelled  TranscriptionJobStatus = "cancelled"  // Explicitly cancelled, terminal
)

// DefaultMaxRetries is the whole-job retry budget.
const DefaultMaxRetries = 3

// TranscriptionJob is one attempt chain to produce a transcript for a
// call. Rows are never deleted; they are the pipeline's audit trail.
type TranscriptionJob struct {
	ID      uuid.UUID              `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID  uuid.UUID              `json:"call_id" gorm:"type:uuid;not null;index"`
	OwnerID uuid.UUID              `json:"owner_id" gorm:"type:uuid;not null;index"`
	TeamID  *uuid.UUID             `json:"team_id,omitempty" gorm:"type:uuid;index"`
	Status  TranscriptionJobStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`

	// Processing details
	StartedAt    *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	RetryCount   int        `json:"retry_count" gorm:"type:integer;default:0"`
	MaxRetries   int        `json:"max_retries" gorm:"type:integer;default:3"`
	ErrorMessage *string    `json:"error_message,omitempty" gorm:"type:text"`

	Metadata JobMetadata `json:"metadata,omitempty" gorm:"type:jsonb;serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// JobMetadata stores stage/progress bookkeeping and the caller's hints.
type JobMetadata struct {
	Language          string `json:"language,omitempty"` // caller-supplied language hint, empty = auto-detect
	Prompt            string `json:"prompt,omitempty"`   // caller-supplied steering prompt
	ForceRetranscribe bool   `json:"force_retranscribe,omitempty"`
	Stage             string `json:"stage,omitempty"`
	Progress          int    `json:"progress,omitempty"` // coarse percentage, best-effort
	FailedStage       string `json:"failed_stage,omitempty"`
}

// Scan implements sql.Scanner interface for GORM
func (m *JobMetadata) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &m)
}

// Value implements driver.Valuer interface for GORM
func (m JobMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// NewTranscriptionJob creates a pending job for a call.
func NewTranscriptionJob(call *Call, meta JobMetadata) *TranscriptionJob {
	return &TranscriptionJob{
		ID:         uuid.New(),
		CallID:     call.ID,
		OwnerID:    call.OwnerID,
		TeamID:     call.TeamID,
		Status:     JobStatusPending,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
		Metadata:   meta,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// IsActive reports whether the job still owns the call's pipeline slot.
func (j *TranscriptionJob) IsActive() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusProcessing
}

// IsTerminal reports whether the job can no longer change state.
func (j *TranscriptionJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusCancelled ||
		(j.Status == JobStatusFailed && j.RetryCount >= j.MaxRetries)
}

// HasRetryBudget checks if another attempt is allowed after a failure.
func (j *TranscriptionJob) HasRetryBudget() bool {
	return j.RetryCount < j.MaxRetries
}

// MarkAsProcessing marks the job as claimed by a worker.
func (j *TranscriptionJob) MarkAsProcessing() {
	j.Status = JobStatusProcessing
	now := time.Now()
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkAsCompleted marks the job as completed successfully.
func (j *TranscriptionJob) MarkAsCompleted() {
	j.Status = JobStatusCompleted
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks the job as failed with an error message.
func (j *TranscriptionJob) MarkAsFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = &errMsg
	j.UpdatedAt = time.Now()
}

// MarkAsCancelled marks the job as cancelled.
func (j *TranscriptionJob) MarkAsCancelled() {
	j.Status = JobStatusCancelled
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// TableName specifies the table name for GORM
func (TranscriptionJob) TableName() string {
	return "transcription_jobs"
}
