package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
	"github.com/mattstvartak/fieldledgr-app/pkg/clock"
	"github.com/mattstvartak/fieldledgr-app/pkg/queue"
	"github.com/redis/go-redis/v9"
)

const storageKey = "fieldledgr_offline_queue_it"

// setupIntegrationRedis connects to the local Redis instance.
// Requires a local redis (or cmd/devredis) to be running.
func setupIntegrationRedis(t *testing.T) *queue.RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: Redis not reachable at localhost:6379 (%v)", err)
	}

	// Clear the storage key for clean state
	rdb.Del(context.Background(), storageKey)
	rdb.Close()

	return queue.NewRedisStorage("localhost:6379", storageKey)
}

func TestIntegrationQueueLifecycle(t *testing.T) {
	storage := setupIntegrationRedis(t)
	defer storage.Close()
	ctx := context.Background()

	clk := clock.Real{}
	store := queue.NewStore(storage, clk)
	store.Load(ctx)

	// 1. Capture an action
	a := store.Enqueue(ctx, actions.ClockIn{UserID: 7}, &actions.GPSCoords{Lat: 39.77, Lng: -89.64})
	if err := store.LastPersistErr(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	// 2. Simulated restart: a fresh store sees the same action
	restarted := queue.NewStore(storage, clk)
	restarted.Load(ctx)
	if restarted.PendingCount() != 1 {
		t.Fatalf("Expected 1 pending action after restart, got %d", restarted.PendingCount())
	}
	head, ok := restarted.NextAction()
	if !ok || head.ID != a.ID {
		t.Fatalf("Expected action %s at the head, got %+v", a.ID, head)
	}

	// 3. Exhaust it into the failed set, then user-retry and drain
	restarted.MarkFailed(ctx, a.ID)
	if restarted.FailedCount() != 1 {
		t.Fatalf("Expected 1 failed action, got %d", restarted.FailedCount())
	}
	if !restarted.RetryFailed(ctx, a.ID) {
		t.Fatal("RetryFailed should find the action")
	}
	restarted.Dequeue(ctx, a.ID)

	// 4. The persisted document reflects the final empty state
	final := queue.NewStore(storage, clk)
	final.Load(ctx)
	if final.PendingCount() != 0 || final.FailedCount() != 0 {
		t.Errorf("Expected empty store, got %d pending / %d failed", final.PendingCount(), final.FailedCount())
	}
}
