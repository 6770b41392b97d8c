package embedding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

type fakeEmbeddingRepo struct {
	mu    sync.Mutex
	byKey map[string]*entities.TranscriptEmbedding
}

func newFakeEmbeddingRepo() *fakeEmbeddingRepo {
	return &fakeEmbeddingRepo{byKey: make(map[string]*entities.TranscriptEmbedding)}
}

func (f *fakeEmbeddingRepo) GetByContentHash(_ context.Context, hash string) (*entities.TranscriptEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byKey[hash], nil
}

func (f *fakeEmbeddingRepo) Save(_ context.Context, e *entities.TranscriptEmbedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byKey[e.ContentHash]; !exists {
		f.byKey[e.ContentHash] = e
	}
	return nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeGenerator) Embed(_ context.Context, text string) ([]float32, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []float32{float32(len(text)), 0.5, 0.25}, len(text) / 4, nil
}

func (f *fakeGenerator) Model() string { return "test-embedding-model" }

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(cacheSize int) (*Service, *fakeEmbeddingRepo, *fakeGenerator) {
	repo := newFakeEmbeddingRepo()
	gen := &fakeGenerator{}
	return NewService(repo, gen, cacheSize, time.Hour, zap.NewNop()), repo, gen
}

func TestGetOrCompute_GeneratesOnceForIdenticalText(t *testing.T) {
	svc, _, gen := newTestService(10)
	callID, ownerID := uuid.New(), uuid.New()

	first, err := svc.GetOrCompute(context.Background(), callID, ownerID, "Hello   World", "transcript")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Fatal("first computation must not be cached")
	}

	// Different whitespace and casing normalizes to the same content.
	second, err := svc.GetOrCompute(context.Background(), callID, ownerID, "hello world", "transcript")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second lookup should hit the cache")
	}
	if gen.callCount() != 1 {
		t.Fatalf("generator called %d times, want 1", gen.callCount())
	}
}

func TestGetOrCompute_DurableHitWarmsMemory(t *testing.T) {
	svc, repo, gen := newTestService(10)
	callID, ownerID := uuid.New(), uuid.New()

	hash := ContentHash(NormalizeText("previously embedded text"))
	repo.byKey[hash] = &entities.TranscriptEmbedding{
		ContentHash: hash,
		Vector:      []float32{1, 2, 3},
		CreatedAt:   time.Now(),
	}

	result, err := svc.GetOrCompute(context.Background(), callID, ownerID, "Previously Embedded Text", "transcript")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Cached {
		t.Fatal("durable hit should report cached")
	}
	if gen.callCount() != 0 {
		t.Fatal("generator must not run on a durable hit")
	}

	// The memory tier is warmed by the durable hit.
	if _, ok := svc.memory.Get(hash); !ok {
		t.Fatal("memory tier not warmed")
	}
}

func TestGetOrCompute_StaleDurableRowRecomputed(t *testing.T) {
	svc, repo, gen := newTestService(10)
	callID, ownerID := uuid.New(), uuid.New()

	hash := ContentHash(NormalizeText("old text"))
	repo.byKey[hash] = &entities.TranscriptEmbedding{
		ContentHash: hash,
		Vector:      []float32{9, 9, 9},
		CreatedAt:   time.Now().Add(-2 * time.Hour), // past the 1h test TTL
	}

	result, err := svc.GetOrCompute(context.Background(), callID, ownerID, "old text", "transcript")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cached {
		t.Fatal("stale row must be treated as a miss")
	}
	if gen.callCount() != 1 {
		t.Fatalf("generator called %d times, want 1", gen.callCount())
	}
}

func TestGetOrCompute_LRUEvictionKeepsByteCounter(t *testing.T) {
	svc, _, _ := newTestService(2)
	ctx := context.Background()
	owner := uuid.New()

	texts := []string{"first text", "second text", "third text"}
	for _, text := range texts {
		if _, err := svc.GetOrCompute(ctx, uuid.New(), owner, text, "transcript"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if svc.memory.Len() > 2 {
		t.Fatalf("memory cache over capacity: %d", svc.memory.Len())
	}
	// Two vectors of three float32s each remain accounted for.
	if got := svc.MemoryBytes(); got != 2*3*4 {
		t.Fatalf("byte counter %d, want %d", got, 2*3*4)
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  Hello\t\tWORLD \n again ")
	if got != "hello world again" {
		t.Fatalf("got %q", got)
	}
}

func TestContentHash_Stable(t *testing.T) {
	a := ContentHash("hello world")
	b := ContentHash("hello world")
	if a != b {
		t.Fatal("hash not deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex, got len %d", len(a))
	}
	if a == ContentHash("hello world!") {
		t.Fatal("different content must hash differently")
	}
}
