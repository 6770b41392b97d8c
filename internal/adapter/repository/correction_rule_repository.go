package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
)

type correctionRuleRepository struct {
	db *gorm.DB
}

// NewCorrectionRuleRepository creates a new correction rule repository
func NewCorrectionRuleRepository(db *gorm.DB) repositories.CorrectionRuleRepository {
	return &correctionRuleRepository{db: db}
}

func (r *correctionRuleRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.CorrectionRule, error) {
	var rules []*entities.CorrectionRule
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("priority ASC, created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
