package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransparentRefreshOn401(t *testing.T) {
	refreshed := false
	var retriedWith string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/refresh-token":
			if r.Header.Get("Authorization") != "Bearer stale" {
				t.Errorf("Refresh must carry the current token, got %q", r.Header.Get("Authorization"))
			}
			refreshed = true
			w.Write([]byte(`{"token":"fresh","exp":9999999999}`))
		case "/api/jobs/7":
			auth := r.Header.Get("Authorization")
			if auth == "Bearer stale" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			retriedWith = auth
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "stale")
	if err := client.UpdateJobStatus(context.Background(), "7", "completed"); err != nil {
		t.Fatalf("Expected refresh + retry to recover the 401, got %v", err)
	}
	if !refreshed {
		t.Error("Expected a token refresh attempt")
	}
	if retriedWith != "Bearer fresh" {
		t.Errorf("Expected retry with refreshed token, got %q", retriedWith)
	}
}

func TestUnauthorizedWhenRefreshFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/users/refresh-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "stale")
	err := client.AddNote(context.Background(), "1", "hello")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestServerErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token")
	err := client.AddNote(context.Background(), "1", "hello")

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", apiErr.Status)
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))

	client := NewClient(srv.URL, "")
	if !client.Healthy(context.Background()) {
		t.Error("Expected healthy while the server is up")
	}

	srv.Close()
	if client.Healthy(context.Background()) {
		t.Error("Expected unhealthy once the server is gone")
	}
}
