package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/callscopehq/callscope/pkg/config"
)

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

const progressKeyPrefix = "transcription:progress:"
const progressTTL = time.Hour

// Progress is the transient stage/percentage snapshot served by the
// status endpoint while a job is running.
type Progress struct {
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
}

// ProgressStore keeps per-call pipeline progress in Redis so any API
// replica can answer status polls.
type ProgressStore struct {
	client *redis.Client
}

// NewProgressStore creates a progress store backed by Redis
func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

// Set stores the current progress snapshot for a call
func (s *ProgressStore) Set(ctx context.Context, callID uuid.UUID, stage string, progress int) error {
	b, err := json.Marshal(Progress{Stage: stage, Progress: progress})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, progressKeyPrefix+callID.String(), b, progressTTL).Err()
}

// Get returns the progress snapshot for a call, or (nil, nil) when none
// is stored.
func (s *ProgressStore) Get(ctx context.Context, callID uuid.UUID) (*Progress, error) {
	b, err := s.client.Get(ctx, progressKeyPrefix+callID.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var p Progress
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Clear removes the progress snapshot once a job reaches a terminal state
func (s *ProgressStore) Clear(ctx context.Context, callID uuid.UUID) error {
	return s.client.Del(ctx, progressKeyPrefix+callID.String()).Err()
}
