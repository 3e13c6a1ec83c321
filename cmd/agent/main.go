// Package main implements the fieldledgr sync agent: it owns the durable
// offline action queue and exposes a local HTTP API for submitting actions
// and reviewing sync state.
//
// API Endpoints:
//
//	POST /actions              - Submits an action (optimistic call, queued on failure)
//	GET  /status               - Online/syncing state plus pending and failed counts
//	GET  /failed               - Failed actions awaiting manual review
//	POST /failed/retry?id=     - Moves a failed action back to the pending queue
//	POST /failed/discard?id=   - Permanently removes a failed action
//	POST /sync                 - Manually triggers a drain cycle
//	GET  /metrics              - Prometheus metrics
//
// Request Format for /actions:
//
//	{
//	  "type": "clock-in",
//	  "payload": {
//	    "userId": 7
//	  },
//	  "gpsCoords": {"lat": 39.77, "lng": -89.64}
//	}
//
// Usage:
//
//	go run ./cmd/agent -config agent.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattstvartak/fieldledgr-app/pkg/actions"
	"github.com/mattstvartak/fieldledgr-app/pkg/api"
	"github.com/mattstvartak/fieldledgr-app/pkg/clock"
	"github.com/mattstvartak/fieldledgr-app/pkg/config"
	"github.com/mattstvartak/fieldledgr-app/pkg/executor"
	"github.com/mattstvartak/fieldledgr-app/pkg/logger"
	"github.com/mattstvartak/fieldledgr-app/pkg/offline"
	"github.com/mattstvartak/fieldledgr-app/pkg/queue"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// authMiddleware wraps an http.HandlerFunc and enforces API Key authentication.
func authMiddleware(next http.HandlerFunc, requiredKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// If no key is configured, allow all (dev mode)
		if requiredKey == "" {
			next(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey != requiredKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// enableCORS wraps an http.HandlerFunc and adds CORS headers so the
// companion dashboard can call the agent from the browser.
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-API-Key")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// setupRouter configures the HTTP handlers and returns the mux. CORS runs
// before auth so preflight requests don't fail the key check.
func setupRouter(engine *offline.Engine, monitor *offline.Monitor, store *queue.Store, apiKey string) *http.ServeMux {
	mux := http.NewServeMux()

	// submitHandler runs the optimistic path: direct remote call first,
	// captured into the queue when it fails.
	mux.HandleFunc("/actions", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Type      actions.Type       `json:"type"`
			Payload   json.RawMessage    `json:"payload"`
			GPSCoords *actions.GPSCoords `json:"gpsCoords"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		payload, err := actions.ParsePayload(req.Type, req.Payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		a, queued := engine.Submit(r.Context(), payload, req.GPSCoords)
		writeJSON(w, http.StatusOK, struct {
			ID     string `json:"id"`
			Queued bool   `json:"queued"`
		}{ID: a.ID, Queued: queued})
	}, apiKey)))

	// statusHandler returns the offline-banner read model.
	mux.HandleFunc("/status", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, monitor.Status())
	}, apiKey)))

	// failedHandler lists failed actions for human review.
	mux.HandleFunc("/failed", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, monitor.FailedItems())
	}, apiKey)))

	// retryHandler resubmits a failed action at the tail of the pending queue.
	mux.HandleFunc("/failed/retry", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Missing action ID", http.StatusBadRequest)
			return
		}
		if !store.RetryFailed(r.Context(), id) {
			http.Error(w, "Action not found", http.StatusNotFound)
			return
		}
		go engine.Sync(context.WithoutCancel(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}, apiKey)))

	// discardHandler permanently removes a failed action. Destructive and
	// not gated behind a confirmation, same as the mobile app.
	mux.HandleFunc("/failed/discard", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Missing action ID", http.StatusBadRequest)
			return
		}
		if !store.DiscardFailed(r.Context(), id) {
			http.Error(w, "Action not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}, apiKey)))

	// syncHandler triggers a drain cycle; a no-op if one is running.
	mux.HandleFunc("/sync", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		go engine.Sync(context.WithoutCancel(r.Context()))
		w.WriteHeader(http.StatusAccepted)
	}, apiKey)))

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// newStorage selects the persistence backend from config.
func newStorage(cfg config.StorageConfig) queue.Storage {
	if cfg.Backend == "redis" {
		return queue.NewRedisStorage(cfg.RedisAddr, cfg.Key)
	}
	return queue.NewFileStorage(cfg.Path)
}

// main wires the store, executor, engine and monitor, then serves the local
// HTTP API until SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Agent.APIKey == "" {
		logger.Log.Warn().Msg("AGENT_API_KEY not set. Authentication disabled.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.Real{}
	store := queue.NewStore(newStorage(cfg.Storage), clk)
	store.Load(ctx)

	client := api.NewClient(cfg.API.URL, cfg.API.Token)
	exec := executor.New(client)
	probe := offline.ProbeFunc(client.Healthy)
	engine := offline.NewEngine(store, exec, probe, clk, cfg.Sync.BackoffBase())
	monitor := offline.NewMonitor(engine, store, probe, clk, cfg.Sync.ProbeInterval(), cfg.Sync.Interval())

	go monitor.Run(ctx)

	// Setup graceful shutdown handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    cfg.Agent.ListenAddr,
		Handler: setupRouter(engine, monitor, store, cfg.Agent.APIKey),
	}

	go func() {
		<-sigChan
		logger.Log.Info().Msg("Shutting down agent...")
		cancel()
		srv.Shutdown(context.Background())
	}()

	logger.Log.Info().Str("addr", cfg.Agent.ListenAddr).Msg("Agent listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatal().Err(err).Msg("Agent failed")
	}
}
