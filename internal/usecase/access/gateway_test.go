package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

type fakeCallRepo struct {
	calls map[uuid.UUID]*entities.Call
}

func (f *fakeCallRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Call, error) {
	return f.calls[id], nil
}

type fakeMembershipRepo struct {
	groups map[uuid.UUID][]uuid.UUID
}

func (f *fakeMembershipRepo) GroupsOf(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.groups[userID], nil
}

type fakeStorage struct {
	url string
	err error
}

func (f *fakeStorage) PresignedRecordingURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return f.url, f.err
}

func newTestGateway(calls map[uuid.UUID]*entities.Call, groups map[uuid.UUID][]uuid.UUID, storage *fakeStorage) *Gateway {
	if storage == nil {
		storage = &fakeStorage{url: "https://storage.local/signed"}
	}
	return NewGateway(
		&fakeCallRepo{calls: calls},
		&fakeMembershipRepo{groups: groups},
		storage,
		time.Hour,
		zap.NewNop(),
	)
}

func TestAuthorize_Owner(t *testing.T) {
	owner := uuid.New()
	call := &entities.Call{ID: uuid.New(), OwnerID: owner}
	g := newTestGateway(map[uuid.UUID]*entities.Call{call.ID: call}, nil, nil)

	got, err := g.Authorize(context.Background(), owner, call.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != call.ID {
		t.Fatalf("wrong call returned")
	}
}

func TestAuthorize_SharedGroup(t *testing.T) {
	owner := uuid.New()
	teammate := uuid.New()
	stranger := uuid.New()
	group := uuid.New()
	call := &entities.Call{ID: uuid.New(), OwnerID: owner}

	groups := map[uuid.UUID][]uuid.UUID{
		owner:    {group},
		teammate: {group, uuid.New()},
		stranger: {uuid.New()},
	}
	g := newTestGateway(map[uuid.UUID]*entities.Call{call.ID: call}, groups, nil)

	if _, err := g.Authorize(context.Background(), teammate, call.ID); err != nil {
		t.Fatalf("teammate should be authorized: %v", err)
	}

	_, err := g.Authorize(context.Background(), stranger, call.ID)
	if !errors.Is(err, entities.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestAuthorize_CallNotFound(t *testing.T) {
	g := newTestGateway(map[uuid.UUID]*entities.Call{}, nil, nil)
	_, err := g.Authorize(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, entities.ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestResolveAudio_PresignsRecording(t *testing.T) {
	owner := uuid.New()
	call := &entities.Call{ID: uuid.New(), OwnerID: owner, RecordingObject: "recordings/a.mp3"}
	g := newTestGateway(map[uuid.UUID]*entities.Call{call.ID: call}, nil, nil)

	_, url, err := g.ResolveAudio(context.Background(), owner, call.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://storage.local/signed" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestResolveAudio_NoRecording(t *testing.T) {
	owner := uuid.New()
	call := &entities.Call{ID: uuid.New(), OwnerID: owner}
	g := newTestGateway(map[uuid.UUID]*entities.Call{call.ID: call}, nil, nil)

	got, url, err := g.ResolveAudio(context.Background(), owner, call.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "" || got == nil {
		t.Fatalf("expected empty url for recording-less call, got %q", url)
	}
}

func TestResolveAudio_StorageFailure(t *testing.T) {
	owner := uuid.New()
	call := &entities.Call{ID: uuid.New(), OwnerID: owner, RecordingObject: "recordings/a.mp3"}
	storage := &fakeStorage{err: errors.New("connection refused")}
	g := newTestGateway(map[uuid.UUID]*entities.Call{call.ID: call}, nil, storage)

	_, _, err := g.ResolveAudio(context.Background(), owner, call.ID)
	if !errors.Is(err, entities.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
