// Package executor maps a queued action to the single remote operation it
// represents. It carries no retry or queue knowledge of its own: an attempt
// either completes or returns the error as-is, and the retry policy lives
// entirely in the sync engine.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
)

// API is the slice of the remote surface the executor replays against.
// Satisfied by *api.Client.
type API interface {
	ClockIn(ctx context.Context, userID int, occurredAt time.Time, gps *actions.GPSCoords, jobID int) error
	ClockOut(ctx context.Context, userID int, occurredAt time.Time, gps *actions.GPSCoords) error
	StartBreak(ctx context.Context, userID int, occurredAt time.Time) error
	EndBreak(ctx context.Context, userID int, occurredAt time.Time) error
	UpdateJobStatus(ctx context.Context, jobID, status string) error
	AddNote(ctx context.Context, jobID, text string) error
	AddPhoto(ctx context.Context, jobID, uri string, category actions.PhotoCategory, caption string) error
}

// Executor replays captured actions against the remote API.
type Executor struct {
	api API
}

// New creates an executor backed by the given API surface.
func New(api API) *Executor {
	return &Executor{api: api}
}

// Execute performs the remote operation for the action. Clock events carry
// the action's capture timestamp and GPS snapshot so the remote record
// reflects when and where the user acted, not when the queue drained.
func (e *Executor) Execute(ctx context.Context, a actions.Action) error {
	switch p := a.Payload.(type) {
	case actions.ClockIn:
		return e.api.ClockIn(ctx, p.UserID, a.Timestamp, a.GPSCoords, p.JobID)
	case actions.ClockOut:
		return e.api.ClockOut(ctx, p.UserID, a.Timestamp, a.GPSCoords)
	case actions.BreakStart:
		return e.api.StartBreak(ctx, p.UserID, a.Timestamp)
	case actions.BreakEnd:
		return e.api.EndBreak(ctx, p.UserID, a.Timestamp)
	case actions.StatusUpdate:
		return e.api.UpdateJobStatus(ctx, p.JobID, p.Status)
	case actions.AddNote:
		return e.api.AddNote(ctx, p.JobID, p.Text)
	case actions.AddPhoto:
		return e.api.AddPhoto(ctx, p.JobID, p.URI, p.Category, p.Caption)
	default:
		return fmt.Errorf("no executor for action type %q", a.Type())
	}
}
