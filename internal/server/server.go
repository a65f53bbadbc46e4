// Package server provides HTTP server initialization and lifecycle
// management for the Ashley API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/ashley/internal/config"
	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/web/handlers"
)

// retentionSweepInterval is how often old conversation rows are purged.
const retentionSweepInterval = 24 * time.Hour

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with
// port 0) and the WebSocketHub for wiring alarm event broadcasts.
// sessions may be nil; /api/stats then reports zero active sessions.
func Start(ctx context.Context, cfg *config.Config, pipeline handlers.CommandPipeline, store storage.ConversationStore, sessions handlers.SessionCounter) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	// WebSocket hub; origin validation is scoped to the configured address.
	origins := []string{
		fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
	}
	wsHub := handlers.NewWebSocketHub(pipeline, origins)
	go wsHub.Run()

	// Rate limiter (10 req/sec, burst of 20)
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	apiHandlers := handlers.NewAPIHandlers(pipeline, store, sessions, cfg)

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			apiHandlers.HandleCommand(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandlers.GetHistory(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			apiHandlers.ListPreferences(w, r)
		case http.MethodPost:
			apiHandlers.SetPreference(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/preferences/{key}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandlers.GetPreference(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/time", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandlers.GetTime(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandlers.GetStats(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Health endpoint stays outside auth so monitors can probe it
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		apiHandlers.Health(w, r)
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security)
	mux.Handle("/ws", wsHub)

	// Wrap entire server with rate limiting, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = handlers.SecurityHeaders(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Retention sweep: purge turns older than the configured horizon, once
	// at startup and then daily.
	go retentionLoop(ctx, store, cfg.Storage.RetentionDays)

	// Graceful shutdown on context cancellation, 5s drain.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}

func retentionLoop(ctx context.Context, store storage.ConversationStore, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	sweep := func() {
		horizon := time.Now().UTC().AddDate(0, 0, -retentionDays)
		purged, err := store.CleanupOlderThan(ctx, horizon)
		if err != nil {
			log.Printf("retention sweep failed: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("retention sweep purged %d turns older than %s", purged, horizon.Format(time.RFC3339))
		}
	}

	sweep()
	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
