package access

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
)

// RecordingStorage abstracts the object store serving call recordings.
type RecordingStorage interface {
	PresignedRecordingURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Gateway answers "may this user touch this call" and hands out
// short-lived recording URLs for callers that may.
type Gateway struct {
	callRepo       repositories.CallRepository
	membershipRepo repositories.MembershipRepository
	storage        RecordingStorage
	signedURLTTL   time.Duration
	logger         *zap.Logger
}

// NewGateway creates an access gateway
func NewGateway(
	callRepo repositories.CallRepository,
	membershipRepo repositories.MembershipRepository,
	storage RecordingStorage,
	signedURLTTL time.Duration,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		callRepo:       callRepo,
		membershipRepo: membershipRepo,
		storage:        storage,
		signedURLTTL:   signedURLTTL,
		logger:         logger,
	}
}

// Authorize loads the call and verifies the user may access it: the
// owner always may, anyone else needs a shared group with the owner.
func (g *Gateway) Authorize(ctx context.Context, userID, callID uuid.UUID) (*entities.Call, error) {
	call, err := g.callRepo.FindByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, entities.ErrCallNotFound
	}

	if call.OwnerID == userID {
		return call, nil
	}

	shared, err := g.sharesGroup(ctx, userID, call.OwnerID)
	if err != nil {
		return nil, err
	}
	if !shared {
		g.logger.Warn("🚫 Call access denied",
			zap.String("user_id", userID.String()),
			zap.String("call_id", callID.String()))
		return nil, entities.ErrAccessDenied
	}
	return call, nil
}

// ResolveAudio authorizes the user and returns a presigned URL for the
// call's recording. Storage failures map to ErrStorageUnavailable so
// callers can distinguish them from authorization failures.
func (g *Gateway) ResolveAudio(ctx context.Context, userID, callID uuid.UUID) (*entities.Call, string, error) {
	call, err := g.Authorize(ctx, userID, callID)
	if err != nil {
		return nil, "", err
	}
	if !call.HasRecording() {
		return call, "", nil
	}

	url, err := g.storage.PresignedRecordingURL(ctx, call.RecordingObject, g.signedURLTTL)
	if err != nil {
		g.logger.Error("❌ Failed to presign recording URL",
			zap.String("call_id", callID.String()),
			zap.Error(err))
		return nil, "", entities.ErrStorageUnavailable
	}
	return call, url, nil
}

func (g *Gateway) sharesGroup(ctx context.Context, userID, ownerID uuid.UUID) (bool, error) {
	userGroups, err := g.membershipRepo.GroupsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(userGroups) == 0 {
		return false, nil
	}
	ownerGroups, err := g.membershipRepo.GroupsOf(ctx, ownerID)
	if err != nil {
		return false, err
	}

	seen := make(map[uuid.UUID]struct{}, len(userGroups))
	for _, id := range userGroups {
		seen[id] = struct{}{}
	}
	for _, id := range ownerGroups {
		if _, ok := seen[id]; ok {
			return true, nil
		}
	}
	return false, nil
}
