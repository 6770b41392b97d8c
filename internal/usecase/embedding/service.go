package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/domain/repositories"
)

// Generator produces embedding vectors for text.
type Generator interface {
	Embed(ctx context.Context, text string) ([]float32, int, error)
	Model() string
}

// Result is the outcome of an embedding lookup or computation.
type Result struct {
	Vector []float32
	Cached bool // true when served from memory or the durable store
}

// Service is a two-tier embedding cache: an in-memory TTL'd LRU in
// front of a durable store keyed by content hash. Identical normalized
// text never hits the generator twice.
type Service struct {
	repo      repositories.EmbeddingRepository
	generator Generator
	memory    *expirable.LRU[string, []float32]
	memBytes  atomic.Int64
	ttl       time.Duration
	logger    *zap.Logger
}

// NewService creates an embedding service with the given memory cache
// capacity and entry TTL.
func NewService(
	repo repositories.EmbeddingRepository,
	generator Generator,
	cacheSize int,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Service {
	s := &Service{
		repo:      repo,
		generator: generator,
		ttl:       cacheTTL,
		logger:    logger,
	}
	s.memory = expirable.NewLRU[string, []float32](cacheSize, s.onEvict, cacheTTL)
	return s
}

func (s *Service) onEvict(_ string, vector []float32) {
	s.memBytes.Add(-int64(len(vector) * 4))
}

// MemoryBytes reports the approximate size of vectors held in memory.
func (s *Service) MemoryBytes() int64 {
	return s.memBytes.Load()
}

// NormalizeText lowercases and collapses runs of whitespace, so
// cosmetic differences do not defeat the cache.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ContentHash returns the cache key for a piece of normalized text.
func ContentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// GetOrCompute returns the embedding for text, from memory, the durable
// store, or the generator, in that order. Generated vectors are written
// to both tiers.
func (s *Service) GetOrCompute(ctx context.Context, callID, ownerID uuid.UUID, text, kind string) (*Result, error) {
	normalized := NormalizeText(text)
	hash := ContentHash(normalized)

	if vector, ok := s.memory.Get(hash); ok {
		return &Result{Vector: vector, Cached: true}, nil
	}

	stored, err := s.repo.GetByContentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	// Stale durable rows are treated as misses and recomputed.
	if stored != nil && !stored.IsStale(s.ttl) {
		s.memAdd(hash, stored.Vector)
		return &Result{Vector: stored.Vector, Cached: true}, nil
	}

	vector, tokens, err := s.generator.Embed(ctx, normalized)
	if err != nil {
		return nil, err
	}

	embedding := &entities.TranscriptEmbedding{
		ID:          uuid.New(),
		CallID:      callID,
		OwnerID:     ownerID,
		ContentHash: hash,
		Vector:      vector,
		Model:       s.generator.Model(),
		TokenCount:  tokens,
		Kind:        kind,
	}
	if err := s.repo.Save(ctx, embedding); err != nil {
		// The vector is still usable; losing the durable copy only
		// costs a recomputation later.
		s.logger.Warn("⚠️ Failed to persist embedding",
			zap.String("call_id", callID.String()),
			zap.Error(err))
	}
	s.memAdd(hash, vector)

	s.logger.Debug("🧮 Embedding computed",
		zap.String("call_id", callID.String()),
		zap.Int("dimensions", len(vector)),
		zap.Int("tokens", tokens))
	return &Result{Vector: vector, Cached: false}, nil
}

func (s *Service) memAdd(hash string, vector []float32) {
	s.memory.Add(hash, vector)
	s.memBytes.Add(int64(len(vector) * 4))
}
