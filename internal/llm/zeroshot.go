package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ZeroShotConfig holds configuration for the hosted zero-shot classifier.
type ZeroShotConfig struct {
	URL     string        // inference endpoint, required
	APIKey  string        // optional bearer token
	Timeout time.Duration // default: 10s
}

// HTTPZeroShot implements ZeroShotClassifier against a hosted-inference
// endpoint that accepts {inputs, parameters.candidate_labels} and returns
// parallel labels/scores arrays ranked best-first.
type HTTPZeroShot struct {
	cfg     ZeroShotConfig
	client  *http.Client
	breaker *Breaker
}

// NewHTTPZeroShot creates a zero-shot classifier client.
func NewHTTPZeroShot(cfg ZeroShotConfig) *HTTPZeroShot {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPZeroShot{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: NewBreaker("zeroshot", BreakerConfig{}),
	}
}

type zeroShotRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
	} `json:"parameters"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

type zeroShotPair struct {
	label string
	score float64
}

// Classify scores text against the candidate labels and returns the
// best-ranked label with its confidence.
func (z *HTTPZeroShot) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	result, err := z.breaker.Execute(ctx, func() (interface{}, error) {
		return z.classify(ctx, text, labels)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", 0, fmt.Errorf("zero-shot circuit breaker open: %w", err)
		}
		return "", 0, err
	}
	pair := result.(zeroShotPair)
	return pair.label, pair.score, nil
}

func (z *HTTPZeroShot) classify(ctx context.Context, text string, labels []string) (zeroShotPair, error) {
	ctx, cancel := context.WithTimeout(ctx, z.cfg.Timeout)
	defer cancel()

	reqBody := zeroShotRequest{Inputs: text}
	reqBody.Parameters.CandidateLabels = labels

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return zeroShotPair{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", z.cfg.URL, bytes.NewReader(jsonData))
	if err != nil {
		return zeroShotPair{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if z.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+z.cfg.APIKey)
	}

	resp, err := z.client.Do(req)
	if err != nil {
		return zeroShotPair{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return zeroShotPair{}, fmt.Errorf("zero-shot endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var respData zeroShotResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return zeroShotPair{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(respData.Labels) == 0 || len(respData.Labels) != len(respData.Scores) {
		return zeroShotPair{}, fmt.Errorf("zero-shot endpoint returned malformed result")
	}

	return zeroShotPair{label: respData.Labels[0], score: respData.Scores[0]}, nil
}

// Compile-time assertion.
var _ ZeroShotClassifier = (*HTTPZeroShot)(nil)
