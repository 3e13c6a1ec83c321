package offline

import (
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
)

// Status is the read model behind the offline banner: while offline it shows
// "Offline" plus the pending count, while online with a non-empty queue it
// shows "Syncing..." or the pending count, and a non-zero failed count
// surfaces the review affordance.
type Status struct {
	Online           bool `json:"online"`
	Syncing          bool `json:"syncing"`
	PendingSyncCount int  `json:"pendingSyncCount"`
	FailedCount      int  `json:"failedCount"`
}

// FailedItem is one entry in the failed-item review list.
type FailedItem struct {
	ID         string       `json:"id"`
	Type       actions.Type `json:"type"`
	Label      string       `json:"label"`
	Timestamp  time.Time    `json:"timestamp"`
	AgeSeconds int64        `json:"ageSeconds"`
	RetryCount int          `json:"retryCount"`
}

// Status returns a snapshot of the sync state for display.
func (m *Monitor) Status() Status {
	return Status{
		Online:           m.online.Load(),
		Syncing:          m.engine.Syncing(),
		PendingSyncCount: m.store.PendingCount(),
		FailedCount:      m.store.FailedCount(),
	}
}

// FailedItems returns the failed set with action-type labels, age and retry
// count for human review.
func (m *Monitor) FailedItems() []FailedItem {
	now := m.clock.Now()
	failed := m.store.FailedItems()
	out := make([]FailedItem, 0, len(failed))
	for _, a := range failed {
		out = append(out, FailedItem{
			ID:         a.ID,
			Type:       a.Type(),
			Label:      a.Label(),
			Timestamp:  a.Timestamp,
			AgeSeconds: int64(now.Sub(a.Timestamp).Seconds()),
			RetryCount: a.RetryCount,
		})
	}
	return out
}
