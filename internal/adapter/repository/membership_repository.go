package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
)

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new group membership repository
func NewMembershipRepository(db *gorm.DB) repositories.MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) GroupsOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var groupIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entities.GroupMembership{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &groupIDs).Error
	if err != nil {
		return nil, err
	}
	return groupIDs, nil
}
