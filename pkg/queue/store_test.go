package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
	"github.com/mattstvartak/fieldledgr-app/pkg/clock"
)

func testClock() *clock.Fake {
	return clock.NewFake(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
}

func fileStore(t *testing.T) (*Store, *FileStorage) {
	t.Helper()
	storage := NewFileStorage(filepath.Join(t.TempDir(), "queue.json"))
	return NewStore(storage, testClock()), storage
}

func TestEnqueuePersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, storage := fileStore(t)

	a := store.Enqueue(ctx, actions.ClockIn{UserID: 7}, &actions.GPSCoords{Lat: 39.77, Lng: -89.64})
	if err := store.LastPersistErr(); err != nil {
		t.Fatalf("Enqueue persist failed: %v", err)
	}

	// Simulated process restart: a fresh store over the same storage
	reloaded := NewStore(storage, testClock())
	reloaded.Load(ctx)

	if reloaded.PendingCount() != 1 {
		t.Fatalf("Expected 1 pending action after reload, got %d", reloaded.PendingCount())
	}
	got, ok := reloaded.NextAction()
	if !ok {
		t.Fatal("Expected a pending action after reload")
	}
	if got.ID != a.ID {
		t.Errorf("Expected ID %s, got %s", a.ID, got.ID)
	}
	if !got.Timestamp.Equal(a.Timestamp) {
		t.Errorf("Expected timestamp %v, got %v", a.Timestamp, got.Timestamp)
	}
	payload, ok := got.Payload.(actions.ClockIn)
	if !ok {
		t.Fatalf("Expected ClockIn payload, got %T", got.Payload)
	}
	if payload.UserID != 7 {
		t.Errorf("Expected userId 7, got %d", payload.UserID)
	}
	if got.GPSCoords == nil || got.GPSCoords.Lat != 39.77 || got.GPSCoords.Lng != -89.64 {
		t.Errorf("GPS coords not preserved: %+v", got.GPSCoords)
	}
}

// countIn returns how many of the two collections contain id.
func countIn(store *Store, id string) int {
	n := 0
	for _, a := range store.pendingSnapshot() {
		if a.ID == id {
			n++
		}
	}
	for _, a := range store.FailedItems() {
		if a.ID == id {
			n++
		}
	}
	return n
}

func TestExactlyOneCollection(t *testing.T) {
	ctx := context.Background()
	store, _ := fileStore(t)

	a := store.Enqueue(ctx, actions.AddNote{JobID: "3", Text: "hi"}, nil)
	b := store.Enqueue(ctx, actions.ClockOut{UserID: 1}, nil)

	if countIn(store, a.ID) != 1 || countIn(store, b.ID) != 1 {
		t.Fatal("Enqueued actions must appear exactly once")
	}

	store.MarkFailed(ctx, a.ID)
	if countIn(store, a.ID) != 1 {
		t.Error("markFailed must leave the action in exactly one collection")
	}
	if store.PendingCount() != 1 || store.FailedCount() != 1 {
		t.Errorf("Expected 1 pending / 1 failed, got %d / %d", store.PendingCount(), store.FailedCount())
	}

	store.RetryFailed(ctx, a.ID)
	if countIn(store, a.ID) != 1 {
		t.Error("retryFailed must leave the action in exactly one collection")
	}
	if store.FailedCount() != 0 {
		t.Errorf("Expected empty failed set, got %d", store.FailedCount())
	}

	store.DiscardFailed(ctx, a.ID) // not failed anymore, no-op
	if countIn(store, a.ID) != 1 {
		t.Error("discard of a pending action must be a no-op")
	}

	store.Dequeue(ctx, a.ID)
	store.Dequeue(ctx, b.ID)
	if countIn(store, a.ID) != 0 || countIn(store, b.ID) != 0 {
		t.Error("Dequeued actions must be gone from both collections")
	}
}

func TestRetryFailedResetsAndAppendsAtTail(t *testing.T) {
	ctx := context.Background()
	store, _ := fileStore(t)

	first := store.Enqueue(ctx, actions.ClockIn{UserID: 1}, nil)
	store.Enqueue(ctx, actions.ClockOut{UserID: 1}, nil)

	store.IncrementRetry(ctx, first.ID)
	store.IncrementRetry(ctx, first.ID)
	store.MarkFailed(ctx, first.ID)

	if !store.RetryFailed(ctx, first.ID) {
		t.Fatal("RetryFailed should find the failed action")
	}

	head, _ := store.NextAction()
	if head.ID == first.ID {
		t.Error("Retried action must re-enter at the tail, not its original position")
	}

	pending := store.pendingSnapshot()
	tail := pending[len(pending)-1]
	if tail.ID != first.ID {
		t.Fatalf("Expected retried action at the tail, got %s", tail.ID)
	}
	if tail.RetryCount != 0 {
		t.Errorf("Expected retryCount reset to 0, got %d", tail.RetryCount)
	}
}

func TestIncrementRetry(t *testing.T) {
	ctx := context.Background()
	store, _ := fileStore(t)

	a := store.Enqueue(ctx, actions.BreakStart{UserID: 2}, nil)
	store.IncrementRetry(ctx, a.ID)
	store.IncrementRetry(ctx, a.ID)

	head, _ := store.NextAction()
	if head.RetryCount != 2 {
		t.Errorf("Expected retryCount 2, got %d", head.RetryCount)
	}
	if !head.Timestamp.Equal(a.Timestamp) {
		t.Error("Capture timestamp must be preserved through retries")
	}
}

type failingStorage struct {
	saveErr error
}

func (f *failingStorage) Load(ctx context.Context) ([]byte, error) { return nil, nil }
func (f *failingStorage) Save(ctx context.Context, data []byte) error {
	return f.saveErr
}

func TestPersistFailureSwallowedButObservable(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{saveErr: errors.New("disk full")}
	store := NewStore(storage, testClock())

	a := store.Enqueue(ctx, actions.AddNote{JobID: "1", Text: "x"}, nil)

	// The in-memory state is still authoritative
	if store.PendingCount() != 1 {
		t.Fatal("Action must survive a persistence failure")
	}
	if store.LastPersistErr() == nil {
		t.Error("Swallowed persistence failure must be observable")
	}

	// A later successful persist catches up and clears the error
	storage.saveErr = nil
	store.Dequeue(ctx, a.ID)
	if store.LastPersistErr() != nil {
		t.Errorf("Expected persist error cleared, got %v", store.LastPersistErr())
	}
}

func TestLoadCorruptDocumentFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	store := NewStore(NewFileStorage(path), testClock())
	store.Load(ctx)

	if store.PendingCount() != 0 || store.FailedCount() != 0 {
		t.Error("Corrupt document must load as empty state")
	}
}

func TestRedisStorageRoundTrip(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	storage := NewRedisStorage(s.Addr(), "fieldledgr_offline_queue")
	defer storage.Close()

	store := NewStore(storage, testClock())
	store.Enqueue(ctx, actions.StatusUpdate{JobID: "5", Status: "en-route"}, nil)
	if err := store.LastPersistErr(); err != nil {
		t.Fatalf("Redis persist failed: %v", err)
	}

	if !s.Exists("fieldledgr_offline_queue") {
		t.Error("Expected queue document under the storage key")
	}

	reloaded := NewStore(storage, testClock())
	reloaded.Load(ctx)
	if reloaded.PendingCount() != 1 {
		t.Errorf("Expected 1 pending action after reload, got %d", reloaded.PendingCount())
	}
}
