// Package llm contains the clients for external language-model services:
// the generative fallback (chat completions) and the zero-shot intent
// classifier. Both degrade gracefully; the assistant works without them.
package llm

import "context"

// TextGenerator is the interface for generative text completion. The
// fallback answer path uses single-string completion style (not chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// ZeroShotClassifier scores text against candidate labels and returns the
// best label with a probability-like confidence in [0, 1].
type ZeroShotClassifier interface {
	Classify(ctx context.Context, text string, labels []string) (label string, confidence float64, err error)
}
