// Package api is the HTTP client for the fieldledgr content API. It provides
// the "authenticated request" capability the sync engine replays against: it
// attaches the bearer credential and, on a 401 response, attempts one
// transparent token refresh and retry before surfacing an authorization
// failure. Concurrent refresh attempts are deduplicated so a burst of 401s
// triggers a single refresh round-trip.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrUnauthorized is returned when a request fails with 401 and the
// transparent token refresh could not recover it. The sync engine treats it
// like any other transient failure: a later attempt may succeed once the
// user re-authenticates.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the remote API.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Body)
}

// Client issues authenticated requests against the remote collection store.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu           sync.Mutex
	token        string
	refreshGroup singleflight.Group
}

// NewClient creates a client for the API at baseURL using the given bearer
// token. The token is replaced in place when a transparent refresh succeeds.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logger.With("api"),
	}
}

// SetToken replaces the bearer credential, e.g. after an external re-login.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do performs one authenticated JSON request. On a 401 it refreshes the
// token once and retries; a second 401 surfaces ErrUnauthorized. Any other
// non-2xx status becomes an *Error. When out is non-nil the response body is
// decoded into it.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.refreshToken(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Token refresh failed")
			return ErrUnauthorized
		}
		resp, err = c.send(ctx, method, path, body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			return ErrUnauthorized
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Body: string(msg)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

// refreshToken exchanges the current token for a fresh one. Concurrent
// callers share a single refresh round-trip via singleflight.
func (c *Client) refreshToken(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		token := c.currentToken()
		if token == "" {
			return nil, errors.New("no token to refresh")
		}

		resp, err := c.send(ctx, http.MethodPost, "/api/users/refresh-token", nil)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
		}

		var out struct {
			Token string `json:"token"`
			Exp   int64  `json:"exp"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}

		c.SetToken(out.Token)
		c.log.Info().Msg("Token refreshed")
		return nil, nil
	})
	return err
}

// Healthy reports whether the API answered a health probe within the
// context deadline. Used by the connectivity monitor as its reachability
// check.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
