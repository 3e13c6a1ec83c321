package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
)

// timeEntryBody is the /api/time-entries create payload. The timestamp is
// the moment the user performed the action, not the moment it synced, so
// replayed actions carry their original capture time.
type timeEntryBody struct {
	User      int                `json:"user"`
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	GPSCoords *actions.GPSCoords `json:"gpsCoords,omitempty"`
	Job       int                `json:"job,omitempty"`
}

// ClockIn records a clock-in event, optionally tied to a job and carrying
// the location captured at action time.
func (c *Client) ClockIn(ctx context.Context, userID int, occurredAt time.Time, gps *actions.GPSCoords, jobID int) error {
	return c.do(ctx, http.MethodPost, "/api/time-entries", timeEntryBody{
		User:      userID,
		Type:      "clock-in",
		Timestamp: occurredAt,
		GPSCoords: gps,
		Job:       jobID,
	}, nil)
}

// ClockOut records a clock-out event.
func (c *Client) ClockOut(ctx context.Context, userID int, occurredAt time.Time, gps *actions.GPSCoords) error {
	return c.do(ctx, http.MethodPost, "/api/time-entries", timeEntryBody{
		User:      userID,
		Type:      "clock-out",
		Timestamp: occurredAt,
		GPSCoords: gps,
	}, nil)
}

// StartBreak records a break-start event.
func (c *Client) StartBreak(ctx context.Context, userID int, occurredAt time.Time) error {
	return c.do(ctx, http.MethodPost, "/api/time-entries", timeEntryBody{
		User:      userID,
		Type:      "break-start",
		Timestamp: occurredAt,
	}, nil)
}

// EndBreak records a break-end event.
func (c *Client) EndBreak(ctx context.Context, userID int, occurredAt time.Time) error {
	return c.do(ctx, http.MethodPost, "/api/time-entries", timeEntryBody{
		User:      userID,
		Type:      "break-end",
		Timestamp: occurredAt,
	}, nil)
}
