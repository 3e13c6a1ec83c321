package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
)

// Media is an uploaded binary in the remote media collection.
type Media struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// AddPhoto uploads the binary at uri to the media collection, then creates a
// photo resource linking the uploaded media to the job.
func (c *Client) AddPhoto(ctx context.Context, jobID, uri string, category actions.PhotoCategory, caption string) error {
	media, err := c.UploadMedia(ctx, uri)
	if err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, "/api/job-photos", struct {
		Job      string                `json:"job"`
		Photo    int                   `json:"photo"`
		Category actions.PhotoCategory `json:"category"`
		Caption  string                `json:"caption,omitempty"`
	}{Job: jobID, Photo: media.ID, Category: category, Caption: caption}, nil)
}

// UploadMedia posts the file at the given local path as a multipart upload
// and returns the created media resource.
func (c *Client) UploadMedia(ctx context.Context, path string) (*Media, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/media", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Status: resp.StatusCode, Body: string(msg)}
	}

	var media Media
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, fmt.Errorf("decode media response: %w", err)
	}
	return &media, nil
}
