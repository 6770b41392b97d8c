package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// CallRepository provides read access to call records.
type CallRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Call, error)
}

// TranscriptionJobRepository manages transcription job lifecycle.
type TranscriptionJobRepository interface {
	Create(ctx context.Context, job *entities.TranscriptionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptionJob, error)
	// GetActiveByCallID returns the pending or processing job for a call,
	// or (nil, nil) when none exists.
	GetActiveByCallID(ctx context.Context, callID uuid.UUID) (*entities.TranscriptionJob, error)
	GetLatestByCallID(ctx context.Context, callID uuid.UUID) (*entities.TranscriptionJob, error)
	ListByStatus(ctx context.Context, status entities.TranscriptionJobStatus, limit int) ([]*entities.TranscriptionJob, error)
	// ClaimPending atomically transitions a pending job to processing.
	// Returns false when another worker already claimed it.
	ClaimPending(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, incrementRetry bool) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	// Requeue puts a failed job back to pending and bumps its retry count.
	Requeue(ctx context.Context, id uuid.UUID) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, meta entities.JobMetadata) error
	// ResetStuck requeues processing jobs whose claim is older than the
	// given cutoff, returning how many rows were touched.
	ResetStuck(ctx context.Context, olderThanSeconds int) (int64, error)
}

// TranscriptRepository stores transcription results, one row per call.
type TranscriptRepository interface {
	GetByCallID(ctx context.Context, callID uuid.UUID) (*entities.Transcript, error)
	// Upsert inserts or replaces the transcript for its call id.
	Upsert(ctx context.Context, transcript *entities.Transcript) error
}

// CorrectionRuleRepository reads user correction rules.
type CorrectionRuleRepository interface {
	// ListByOwner returns the owner's rules ordered by ascending priority.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.CorrectionRule, error)
}

// EmbeddingRepository is the durable embedding cache.
type EmbeddingRepository interface {
	GetByContentHash(ctx context.Context, hash string) (*entities.TranscriptEmbedding, error)
	Save(ctx context.Context, embedding *entities.TranscriptEmbedding) error
}

// MembershipRepository resolves group membership for access checks.
type MembershipRepository interface {
	GroupsOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
