package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"It is a language."}}]}`))
	}))
	defer server.Close()

	client := NewOpenRouterClient(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	got, err := client.Complete(context.Background(), "what is go")
	require.NoError(t, err)
	assert.Equal(t, "It is a language.", got)
}

func TestOpenRouterRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client := NewOpenRouterClient(OpenRouterConfig{
		BaseURL:      server.URL,
		RetryBackoff: time.Millisecond,
	})

	got, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
}

func TestOpenRouterGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenRouterClient(OpenRouterConfig{
		BaseURL:      server.URL,
		RetryBackoff: time.Millisecond,
	})

	_, err := client.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenRouterClient(OpenRouterConfig{
		BaseURL:      server.URL,
		RetryBackoff: time.Millisecond,
	})

	_, err := client.Complete(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOpenRouterDefaults(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterConfig{})
	assert.Equal(t, "openai/gpt-4o-mini", client.GetModel())
	assert.Equal(t, "https://openrouter.ai/api", client.cfg.BaseURL)
	assert.Equal(t, 3, client.cfg.MaxAttempts)
}
