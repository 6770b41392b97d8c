package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
)

type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) repositories.TranscriptRepository {
	return &transcriptRepository{db: db}
}

func (r *transcriptRepository) GetByCallID(ctx context.Context, callID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	err := r.db.WithContext(ctx).Where("call_id = ?", callID).First(&transcript).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// Upsert keeps one transcript row per call. A re-run replaces the
// previous result wholesale, last write wins.
func (r *transcriptRepository) Upsert(ctx context.Context, transcript *entities.Transcript) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "call_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"raw_text",
				"corrected_text",
				"display_text",
				"status",
				"confidence_score",
				"language",
				"was_translated",
				"original_language",
				"segments",
				"processing_time_ms",
				"error_message",
				"updated_at",
			}),
		}).
		Create(transcript).Error
}
