// Package actions defines the core data structures for captured user actions
// in the fieldledgr offline queue. An Action is a unit of user intent (clock
// event, status update, note, photo) that could not be confirmed remotely and
// is queued for replay once connectivity returns.
package actions

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of a queued action. The set is closed: adding a
// kind means adding a payload struct and an executor branch, never changing
// the queue machinery.
type Type string

const (
	TypeClockIn      Type = "clock-in"
	TypeClockOut     Type = "clock-out"
	TypeBreakStart   Type = "break-start"
	TypeBreakEnd     Type = "break-end"
	TypeStatusUpdate Type = "status-update"
	TypeAddNote      Type = "add-note"
	TypeAddPhoto     Type = "add-photo"
)

// MaxRetries is the replay budget per action. Once RetryCount reaches this,
// the action moves to the failed set instead of being re-queued.
const MaxRetries = 3

// GPSCoords is a location snapshot captured at action time. For clock events
// the location at the moment of the action matters more than the location at
// the moment of sync, so it rides along with the queued action.
type GPSCoords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Action represents a captured, not-yet-confirmed user action.
//
// The Payload field carries the kind-specific parameters needed to replay the
// action. RetryCount is incremented by the sync engine on each failed replay.
type Action struct {
	// ID is a unique identifier for the action (UUID), stable for the
	// lifetime of the persisted store.
	ID string

	// Payload holds the kind-specific replay parameters. Its concrete type
	// determines the action's Type.
	Payload Payload

	// Timestamp is the capture time: when the user performed the action,
	// not when any later retry happened. It is preserved through retries.
	Timestamp time.Time

	// GPSCoords is an optional location snapshot taken at capture time.
	GPSCoords *GPSCoords

	// RetryCount tracks how many replay attempts have failed so far.
	RetryCount int

	// MaxRetries is the retry budget (always MaxRetries; persisted so older
	// stored documents keep their original policy on reload).
	MaxRetries int
}

// Type returns the action kind derived from the payload.
func (a Action) Type() Type {
	return a.Payload.Kind()
}

// Label returns the human-readable name for the action kind, used by the
// failed-item review surface.
func (a Action) Label() string {
	switch a.Payload.Kind() {
	case TypeClockIn:
		return "Clock In"
	case TypeClockOut:
		return "Clock Out"
	case TypeBreakStart:
		return "Start Break"
	case TypeBreakEnd:
		return "End Break"
	case TypeStatusUpdate:
		return "Status Update"
	case TypeAddNote:
		return "Add Note"
	case TypeAddPhoto:
		return "Add Photo"
	}
	return string(a.Payload.Kind())
}

// New constructs a freshly captured action with a generated ID, the given
// capture time and a zero retry count.
func New(payload Payload, gps *GPSCoords, now time.Time) Action {
	return Action{
		ID:         uuid.New().String(),
		Payload:    payload,
		Timestamp:  now,
		GPSCoords:  gps,
		RetryCount: 0,
		MaxRetries: MaxRetries,
	}
}
