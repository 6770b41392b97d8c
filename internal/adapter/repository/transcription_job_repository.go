package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
)

type transcriptionJobRepository struct {
	db *gorm.DB
}

// NewTranscriptionJobRepository creates a new transcription job repository
func NewTranscriptionJobRepository(db *gorm.DB) repositories.TranscriptionJobRepository {
	return &transcriptionJobRepository{db: db}
}

func (r *transcriptionJobRepository) Create(ctx context.Context, job *entities.TranscriptionJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *transcriptionJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptionJob, error) {
	var job entities.TranscriptionJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *transcriptionJobRepository) GetActiveByCallID(ctx context.Context, callID uuid.UUID) (*entities.TranscriptionJob, error) {
	var job entities.TranscriptionJob
	err := r.db.WithContext(ctx).
		Where("call_id = ? AND status IN ?", callID, []entities.TranscriptionJobStatus{
			entities.JobStatusPending,
			entities.JobStatusProcessing,
		}).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *transcriptionJobRepository) GetLatestByCallID(ctx context.Context, callID uuid.UUID) (*entities.TranscriptionJob, error) {
	var job entities.TranscriptionJob
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *transcriptionJobRepository) ListByStatus(ctx context.Context, status entities.TranscriptionJobStatus, limit int) ([]*entities.TranscriptionJob, error) {
	var jobs []*entities.TranscriptionJob
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimPending flips pending -> processing guarded by the current status,
// so two workers polling the same row cannot both win.
func (r *transcriptionJobRepository) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ? AND status = ?", id, entities.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusProcessing,
			"started_at": time.Now(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *transcriptionJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       entities.JobStatusCompleted,
			"completed_at": time.Now(),
			"updated_at":   time.Now(),
		}).Error
}

func (r *transcriptionJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, incrementRetry bool) error {
	updates := map[string]interface{}{
		"status":        entities.JobStatusFailed,
		"error_message": errMsg,
		"updated_at":    time.Now(),
	}
	if incrementRetry {
		updates["retry_count"] = gorm.Expr("retry_count + 1")
	}
	return r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *transcriptionJobRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ? AND status IN ?", id, []entities.TranscriptionJobStatus{
			entities.JobStatusPending,
			entities.JobStatusProcessing,
		}).
		Updates(map[string]interface{}{
			"status":       entities.JobStatusCancelled,
			"completed_at": time.Now(),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s is not active", id)
	}
	return nil
}

func (r *transcriptionJobRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      entities.JobStatusPending,
			"retry_count": gorm.Expr("retry_count + 1"),
			"started_at":  nil,
			"updated_at":  time.Now(),
		}).Error
}

func (r *transcriptionJobRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, meta entities.JobMetadata) error {
	return r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"metadata":   meta,
			"updated_at": time.Now(),
		}).Error
}

// ResetStuck rescues jobs abandoned by a crashed worker. Jobs whose
// retry budget is spent go to failed instead of back to pending.
func (r *transcriptionJobRepository) ResetStuck(ctx context.Context, olderThanSeconds int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)

	failed := r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("status = ? AND started_at < ? AND retry_count >= max_retries", entities.JobStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":        entities.JobStatusFailed,
			"error_message": "worker lost: job stuck in processing",
			"updated_at":    time.Now(),
		})
	if failed.Error != nil {
		return 0, failed.Error
	}

	requeued := r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("status = ? AND started_at < ?", entities.JobStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":      entities.JobStatusPending,
			"retry_count": gorm.Expr("retry_count + 1"),
			"started_at":  nil,
			"updated_at":  time.Now(),
		})
	if requeued.Error != nil {
		return failed.RowsAffected, requeued.Error
	}
	return failed.RowsAffected + requeued.RowsAffected, nil
}
