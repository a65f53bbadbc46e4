// Package server_test exercises the HTTP server wiring end to end against a
// stubbed pipeline and a real sqlite store.
package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/ashley/internal/assistant"
	"github.com/scrypster/ashley/internal/config"
	"github.com/scrypster/ashley/internal/server"
	"github.com/scrypster/ashley/internal/storage/sqlite"
	"github.com/scrypster/ashley/pkg/types"
)

type stubPipeline struct{}

func (stubPipeline) HandleCommand(_ context.Context, cmd assistant.Command) (*assistant.Result, error) {
	if strings.TrimSpace(cmd.Text) == "" {
		return nil, assistant.ErrEmptyCommand
	}
	return &assistant.Result{
		SessionID: cmd.SessionID,
		Intent:    types.IntentGetTime,
		Response:  "Sir, the time is 03:04 PM",
		Success:   true,
	}, nil
}

// startTestServer starts a server on a random port with a sqlite store and
// registers cleanup with t.Cleanup.
func startTestServer(t *testing.T, cfg *config.Config) string {
	t.Helper()

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	cfg.Server.Port = 0

	store, err := sqlite.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	addr, _ := server.Start(ctx, cfg, stubPipeline{}, store, nil)

	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
		_ = store.Close()
	})

	return "http://" + addr
}

func devConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Security.SecurityMode = "development"
	cfg.Storage.RetentionDays = 30
	return cfg
}

func TestServerHealthEndpoint(t *testing.T) {
	baseURL := startTestServer(t, devConfig())

	resp, err := http.Get(baseURL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthy")
}

func TestServerCommandEndpoint(t *testing.T) {
	baseURL := startTestServer(t, devConfig())

	resp, err := http.Post(baseURL+"/api/command", "application/json",
		strings.NewReader(`{"text":"what time is it","session_id":"s-1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got assistant.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, types.IntentGetTime, got.Intent)
	assert.True(t, got.Success)
}

func TestServerMethodNotAllowed(t *testing.T) {
	baseURL := startTestServer(t, devConfig())

	resp, err := http.Get(baseURL + "/api/command")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerProductionRequiresAuth(t *testing.T) {
	cfg := devConfig()
	cfg.Security.SecurityMode = "production"
	cfg.Security.APIToken = "secret-token"
	baseURL := startTestServer(t, cfg)

	// Unauthenticated API call is rejected
	resp, err := http.Get(baseURL + "/api/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health stays open
	resp, err = http.Get(baseURL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Bearer token is accepted
	req, err := http.NewRequest("GET", baseURL+"/api/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerSecurityHeaders(t *testing.T) {
	baseURL := startTestServer(t, devConfig())

	resp, err := http.Get(baseURL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestServerGracefulShutdown(t *testing.T) {
	cfg := devConfig()
	cfg.Server.Host = "127.0.0.1"

	store, err := sqlite.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	addr, _ := server.Start(ctx, cfg, stubPipeline{}, store, nil)
	time.Sleep(50 * time.Millisecond)

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()

	cancel()
	time.Sleep(200 * time.Millisecond)

	_, err = http.Get("http://" + addr + "/api/health")
	assert.Error(t, err, "server should refuse connections after shutdown")
}
