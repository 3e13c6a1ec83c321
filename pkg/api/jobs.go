package api

import (
	"context"
	"net/http"
)

// UpdateJobStatus sets the job's status field to the new value. Last write
// wins; there is no compare-and-swap against an expected prior status.
func (c *Client) UpdateJobStatus(ctx context.Context, jobID, status string) error {
	return c.do(ctx, http.MethodPatch, "/api/jobs/"+jobID, struct {
		Status string `json:"status"`
	}{Status: status}, nil)
}

// AddNote creates a note resource associated with the job.
func (c *Client) AddNote(ctx context.Context, jobID, text string) error {
	return c.do(ctx, http.MethodPost, "/api/job-notes", struct {
		Job  string `json:"job"`
		Text string `json:"text"`
	}{Job: jobID, Text: text}, nil)
}
