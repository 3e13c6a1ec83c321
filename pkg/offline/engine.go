// Package offline drives replay of the durable action queue against the
// remote API. It contains the sync engine (drain loop with retry/backoff),
// the connectivity monitor that triggers it, and the status read model the
// UI layer consumes.
package offline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
	"github.com/mattstvartak/fieldledgr-app/pkg/clock"
	"github.com/mattstvartak/fieldledgr-app/pkg/logger"
	"github.com/mattstvartak/fieldledgr-app/pkg/queue"
	"github.com/rs/zerolog"
)

// Executor replays a single action against the remote API. Satisfied by
// *executor.Executor.
type Executor interface {
	Execute(ctx context.Context, a actions.Action) error
}

// Probe reports current network reachability. Satisfied by ProbeFunc over
// api.Client.Healthy.
type Probe interface {
	Online(ctx context.Context) bool
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context) bool

func (f ProbeFunc) Online(ctx context.Context) bool { return f(ctx) }

// Engine drains the pending queue sequentially under the retry/backoff
// policy. At most one drain cycle runs at a time; every trigger source goes
// through Sync, which is a no-op while a cycle is in progress.
type Engine struct {
	store       *queue.Store
	exec        Executor
	probe       Probe
	clock       clock.Clock
	backoffBase time.Duration
	log         zerolog.Logger

	syncing atomic.Bool

	// sleep is the backoff delay; swapped out in tests to assert spacing
	// without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a sync engine over the given store and executor.
func NewEngine(store *queue.Store, exec Executor, probe Probe, clk clock.Clock, backoffBase time.Duration) *Engine {
	return &Engine{
		store:       store,
		exec:        exec,
		probe:       probe,
		clock:       clk,
		backoffBase: backoffBase,
		log:         logger.With("sync"),
		sleep:       sleepCtx,
	}
}

// Syncing reports whether a drain cycle is currently in progress.
func (e *Engine) Syncing() bool {
	return e.syncing.Load()
}

// Submit is the optimistic path for a user action: try the remote call
// directly, and only on failure capture it into the durable queue for later
// replay. The returned bool reports whether the action was queued.
func (e *Engine) Submit(ctx context.Context, payload actions.Payload, gps *actions.GPSCoords) (actions.Action, bool) {
	attempt := actions.New(payload, gps, e.clock.Now())
	err := e.exec.Execute(ctx, attempt)
	if err == nil {
		return attempt, false
	}
	e.log.Info().
		Err(err).
		Str("type", string(payload.Kind())).
		Msg("Direct call failed, queueing for offline sync")
	return e.store.Enqueue(ctx, payload, gps), true
}

// Sync runs one drain cycle over the pending queue. It returns immediately
// when a cycle is already in progress, the queue is empty, or the device is
// offline. Triggered on startup after queue load, on the connectivity
// transition to online, by the periodic fallback timer, and manually.
func (e *Engine) Sync(ctx context.Context) {
	if e.store.PendingCount() == 0 {
		return
	}
	if !e.probe.Online(ctx) {
		return
	}
	// The syncing flag is the sole concurrency guard: a second trigger while
	// a cycle is in flight must not spawn an overlapping drain loop.
	if !e.syncing.CompareAndSwap(false, true) {
		return
	}
	defer e.syncing.Store(false)

	start := time.Now()
	e.log.Info().Int("pending", e.store.PendingCount()).Msg("Sync pass started")

	for {
		if ctx.Err() != nil {
			break
		}

		a, ok := e.store.NextAction()
		if !ok {
			break
		}

		err := e.exec.Execute(ctx, a)
		if err == nil {
			e.store.Dequeue(ctx, a.ID)
			actionsProcessed.WithLabelValues("success", string(a.Type())).Inc()
			e.log.Info().
				Str("action_id", a.ID).
				Str("type", string(a.Type())).
				Msg("Action synced")
			continue
		}

		e.log.Warn().
			Err(err).
			Str("action_id", a.ID).
			Str("type", string(a.Type())).
			Int("retry_count", a.RetryCount).
			Msg("Action replay failed")

		if a.RetryCount >= a.MaxRetries {
			// Move past the exhausted item instead of blocking the whole
			// queue behind it: later independent actions are not starved by
			// one bad action, at the cost of strict causal ordering.
			e.store.MarkFailed(ctx, a.ID)
			actionsProcessed.WithLabelValues("failed", string(a.Type())).Inc()
			continue
		}

		e.store.IncrementRetry(ctx, a.ID)
		actionsProcessed.WithLabelValues("retry", string(a.Type())).Inc()

		// Exponential backoff before the next attempt on the same item:
		// base * 2^retryCount with the pre-increment count, so the delays
		// run 1s, 2s, 4s with the default base.
		delay := e.backoffBase * (1 << a.RetryCount)
		if err := e.sleep(ctx, delay); err != nil {
			break
		}
	}

	updateDepthGauges(e.store)
	syncPassDuration.Observe(time.Since(start).Seconds())
	e.log.Info().
		Int("pending", e.store.PendingCount()).
		Int("failed", e.store.FailedCount()).
		Msg("Sync pass finished")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
