// Package main provides a benchmark tool for the durable queue store to
// measure enqueue/persist throughput. Every enqueue rewrites the full
// persisted document, so throughput degrades as the queue grows; this tool
// makes that cost visible for both storage backends.
//
// Usage:
//
//	go run benchmark/main.go -actions 1000 -backend file
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
	"github.com/mattstvartak/fieldledgr-app/pkg/clock"
	"github.com/mattstvartak/fieldledgr-app/pkg/queue"
)

func main() {
	numActions := flag.Int("actions", 1000, "Number of actions to enqueue")
	backend := flag.String("backend", "file", "Storage backend: file or redis")
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for the redis backend")
	flag.Parse()

	var storage queue.Storage
	switch *backend {
	case "file":
		dir, err := os.MkdirTemp("", "queue-bench")
		if err != nil {
			fmt.Printf("Error creating temp dir: %v\n", err)
			os.Exit(1)
		}
		defer os.RemoveAll(dir)
		storage = queue.NewFileStorage(filepath.Join(dir, "queue.json"))
	case "redis":
		storage = queue.NewRedisStorage(*redisAddr, "bench_offline_queue")
	default:
		fmt.Printf("Unknown backend: %s\n", *backend)
		os.Exit(1)
	}

	store := queue.NewStore(storage, clock.Real{})
	ctx := context.Background()

	fmt.Printf("Queue Store Benchmark\n")
	fmt.Printf("=====================\n")
	fmt.Printf("Actions to enqueue: %d\n", *numActions)
	fmt.Printf("Backend: %s\n\n", *backend)

	// Enqueue phase: every call persists the full document
	fmt.Printf("Starting enqueue phase...\n")
	startEnqueue := time.Now()

	for i := 0; i < *numActions; i++ {
		store.Enqueue(ctx, actions.AddNote{
			JobID: fmt.Sprintf("job-%d", i),
			Text:  "benchmark note",
		}, nil)
	}

	enqueueTime := time.Since(startEnqueue)
	if err := store.LastPersistErr(); err != nil {
		fmt.Printf("Persistence error during benchmark: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Enqueued %d actions in %s\n", store.PendingCount(), enqueueTime)
	fmt.Printf("  Throughput: %.2f actions/sec\n\n", float64(*numActions)/enqueueTime.Seconds())

	// Drain phase: dequeue from the head, persisting each removal
	fmt.Printf("Starting drain phase...\n")
	startDrain := time.Now()

	for {
		a, ok := store.NextAction()
		if !ok {
			break
		}
		store.Dequeue(ctx, a.ID)
	}

	drainTime := time.Since(startDrain)
	fmt.Printf("✓ Drained queue in %s\n", drainTime)
	fmt.Printf("  Throughput: %.2f actions/sec\n", float64(*numActions)/drainTime.Seconds())

	totalTime := enqueueTime + drainTime
	fmt.Printf("\nTotal time: %s\n", totalTime)
	fmt.Printf("Overall throughput: %.2f actions/sec\n", float64(2*(*numActions))/totalTime.Seconds())
}
