// Package queue implements the durable offline action queue. It supports
// reliable capture and replay of user actions with features including:
//   - FIFO pending queue plus a terminal failed set
//   - Every mutation persisted through a pluggable Storage backend
//   - Best-effort persistence: storage hiccups never lose the in-memory state
//   - Crash-safe reload with fallback to empty state on corrupt documents
//
// The Store type is the sole owner of both collections; all mutation goes
// through it so memory and persisted storage never diverge.
package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
	"github.com/mattstvartak/fieldledgr-app/pkg/clock"
	"github.com/mattstvartak/fieldledgr-app/pkg/logger"
	"github.com/rs/zerolog"
)

// document is the persisted storage shape: the same single record the mobile
// app kept under its device storage key.
type document struct {
	Queue  []actions.Action `json:"queue"`
	Failed []actions.Action `json:"failed"`
}

// Store holds the pending queue and the failed set.
//
// Invariants:
//   - An action lives in exactly one of the two collections at any time.
//   - The pending queue preserves capture order (FIFO).
//   - RetryCount only grows while an action stays pending; it resets to 0
//     when a failed action is explicitly retried by the user.
type Store struct {
	mu      sync.Mutex
	pending []actions.Action
	failed  []actions.Action

	storage Storage
	clock   clock.Clock
	log     zerolog.Logger

	// lastPersistErr records the most recent swallowed persistence failure,
	// cleared on the next successful persist. Mutations never propagate
	// storage errors: the captured action must survive a storage hiccup.
	lastPersistErr error
}

// NewStore initializes an empty store. Call Load before use to pick up any
// previously persisted queue.
func NewStore(storage Storage, clk clock.Clock) *Store {
	return &Store{
		pending: make([]actions.Action, 0),
		failed:  make([]actions.Action, 0),
		storage: storage,
		clock:   clk,
		log:     logger.With("queue"),
	}
}

// Load reads the persisted document into memory. A missing document is a
// valid empty state; a corrupt one is logged and discarded so startup never
// crashes on bad stored state.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.storage.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read persisted queue, starting empty")
		return
	}
	if data == nil {
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn().Err(err).Msg("Persisted queue is corrupt, starting empty")
		return
	}

	if doc.Queue != nil {
		s.pending = doc.Queue
	}
	if doc.Failed != nil {
		s.failed = doc.Failed
	}
	s.log.Info().
		Int("pending", len(s.pending)).
		Int("failed", len(s.failed)).
		Msg("Loaded persisted queue")
}

// Enqueue captures a new action at the tail of the pending queue and
// persists before returning. It always succeeds; payload validation is the
// executor's concern at replay time.
func (s *Store) Enqueue(ctx context.Context, payload actions.Payload, gps *actions.GPSCoords) actions.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := actions.New(payload, gps, s.clock.Now())
	s.pending = append(s.pending, a)
	s.persist(ctx)

	s.log.Info().
		Str("action_id", a.ID).
		Str("type", string(a.Type())).
		Msg("Action queued for offline sync")
	return a
}

// Dequeue removes the action with the given id from the pending queue.
// No-op if absent.
func (s *Store) Dequeue(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, removed := remove(s.pending, id)
	if removed == nil {
		return
	}
	s.pending = pending
	s.persist(ctx)
}

// MarkFailed moves a pending action to the failed set. The move is atomic
// with respect to the store's observable state: no window where the action
// is in both collections or neither. No-op if id is not pending.
func (s *Store) MarkFailed(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, removed := remove(s.pending, id)
	if removed == nil {
		return
	}
	s.pending = pending
	s.failed = append(s.failed, *removed)
	s.persist(ctx)

	s.log.Warn().
		Str("action_id", id).
		Str("type", string(removed.Type())).
		Msg("Action exhausted retries, moved to failed set")
}

// RetryFailed moves a failed action back to the tail of the pending queue
// with its retry count reset to 0. It is treated as newly resubmitted, not
// resumed at its original position. Returns false if id is not in the
// failed set.
func (s *Store) RetryFailed(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed, removed := remove(s.failed, id)
	if removed == nil {
		return false
	}
	s.failed = failed
	removed.RetryCount = 0
	s.pending = append(s.pending, *removed)
	s.persist(ctx)
	return true
}

// DiscardFailed permanently removes a failed action. Returns false if id is
// not in the failed set.
func (s *Store) DiscardFailed(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed, removed := remove(s.failed, id)
	if removed == nil {
		return false
	}
	s.failed = failed
	s.persist(ctx)
	return true
}

// IncrementRetry bumps the retry count of a pending action in place.
// No-op if id is not pending.
func (s *Store) IncrementRetry(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending[i].RetryCount++
			s.persist(ctx)
			return
		}
	}
}

// NextAction peeks at the head of the pending queue without removing it.
// The second return value is false when the queue is empty.
func (s *Store) NextAction() (actions.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return actions.Action{}, false
	}
	return s.pending[0], true
}

// PendingCount returns the current pending queue length.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// FailedCount returns the current failed set size.
func (s *Store) FailedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failed)
}

// FailedItems returns a copy of the failed set in failure order.
func (s *Store) FailedItems() []actions.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]actions.Action, len(s.failed))
	copy(out, s.failed)
	return out
}

// pendingSnapshot returns a copy of the pending queue in capture order.
func (s *Store) pendingSnapshot() []actions.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]actions.Action, len(s.pending))
	copy(out, s.pending)
	return out
}

// LastPersistErr reports the most recent swallowed persistence failure, or
// nil if the last persist succeeded. Exposed so callers (and tests) can
// observe that persistence was attempted and failed rather than the failure
// being silently invisible.
func (s *Store) LastPersistErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPersistErr
}

// persist writes the full document to storage. Failures are swallowed: the
// in-memory state stays authoritative for this process session and a later
// successful persist catches up. Callers must hold s.mu.
func (s *Store) persist(ctx context.Context) {
	doc := document{Queue: s.pending, Failed: s.failed}
	data, err := json.Marshal(doc)
	if err == nil {
		err = s.storage.Save(ctx, data)
	}
	if err != nil {
		s.lastPersistErr = err
		s.log.Warn().Err(err).Msg("Failed to persist queue, keeping in-memory state")
		return
	}
	s.lastPersistErr = nil
}

// remove filters the action with the given id out of list, returning the new
// slice and the removed action (nil if absent).
func remove(list []actions.Action, id string) ([]actions.Action, *actions.Action) {
	for i := range list {
		if list[i].ID == id {
			removed := list[i]
			out := make([]actions.Action, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, &removed
		}
	}
	return list, nil
}
