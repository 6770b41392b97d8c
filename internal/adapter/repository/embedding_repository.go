package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
)

type embeddingRepository struct {
	db *gorm.DB
}

// NewEmbeddingRepository creates a new embedding repository
func NewEmbeddingRepository(db *gorm.DB) repositories.EmbeddingRepository {
	return &embeddingRepository{db: db}
}

func (r *embeddingRepository) GetByContentHash(ctx context.Context, hash string) (*entities.TranscriptEmbedding, error) {
	var embedding entities.TranscriptEmbedding
	err := r.db.WithContext(ctx).Where("content_hash = ?", hash).First(&embedding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &embedding, nil
}

// Save is idempotent on content hash: a concurrent writer with the same
// hash wins silently instead of surfacing a unique violation.
func (r *embeddingRepository) Save(ctx context.Context, embedding *entities.TranscriptEmbedding) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_hash"}},
			DoNothing: true,
		}).
		Create(embedding).Error
}
