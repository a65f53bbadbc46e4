package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroShotClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req zeroShotRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what time is it", req.Inputs)
		assert.Contains(t, req.Parameters.CandidateLabels, "get_time")

		_, _ = w.Write([]byte(`{"labels":["get_time","get_date"],"scores":[0.91,0.04]}`))
	}))
	defer server.Close()

	client := NewHTTPZeroShot(ZeroShotConfig{URL: server.URL})

	label, confidence, err := client.Classify(context.Background(), "what time is it", []string{"get_time", "get_date"})
	require.NoError(t, err)
	assert.Equal(t, "get_time", label)
	assert.Equal(t, 0.91, confidence)
}

func TestZeroShotMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"labels":["a","b"],"scores":[0.5]}`))
	}))
	defer server.Close()

	client := NewHTTPZeroShot(ZeroShotConfig{URL: server.URL})

	_, _, err := client.Classify(context.Background(), "hello", []string{"a", "b"})
	assert.Error(t, err)
}

func TestZeroShotNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPZeroShot(ZeroShotConfig{URL: server.URL})

	_, _, err := client.Classify(context.Background(), "hello", []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("test", BreakerConfig{MaxFailures: 3})
	fail := func() (interface{}, error) { return nil, assert.AnError }

	for i := 0; i < 3; i++ {
		_, err := b.Execute(context.Background(), fail)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := b.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, "open", b.State())
}

func TestBreakerCancelledContext(t *testing.T) {
	b := NewBreaker("test", BreakerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Execute(ctx, func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "closed", b.State())
}
