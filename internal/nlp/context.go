package nlp

import (
	"context"
	"strings"

	"github.com/scrypster/ashley/pkg/types"
)

// followUpConfidence is assigned when an unknown utterance is resolved as a
// follow-up to the previous turn's intent.
const followUpConfidence = 0.7

// HistoryCap bounds the utterance history consulted during follow-up
// resolution. Callers keep a FIFO window of at most this many entries.
const HistoryCap = 10

// Resolver augments the stateless Classifier with conversational follow-up
// handling. It only reads history; appending the current turn afterwards is
// the caller's job.
type Resolver struct {
	classifier *Classifier
	followUps  types.FollowUpTable
}

// NewResolver builds a Resolver over the given classifier and follow-up
// trigger table.
func NewResolver(classifier *Classifier, followUps types.FollowUpTable) *Resolver {
	return &Resolver{classifier: classifier, followUps: followUps}
}

// Resolve classifies text, and when the result is unknown and history is
// non-empty, re-classifies the most recent prior utterance: if the current
// text contains one of that intent's follow-up trigger phrases, the prior
// intent is carried forward with a fixed confidence.
func (r *Resolver) Resolve(ctx context.Context, text string, history []string) types.ClassificationResult {
	result := r.classifier.Classify(ctx, text)
	if result.Intent != types.IntentUnknown || len(history) == 0 {
		return result
	}

	last := r.classifier.Classify(ctx, history[len(history)-1])
	if last.Intent == types.IntentUnknown {
		return result
	}

	triggers, ok := r.followUps[last.Intent]
	if !ok {
		return result
	}

	normalized := Normalize(text)
	for _, trigger := range triggers {
		if strings.Contains(normalized, trigger) {
			result.Intent = last.Intent
			result.Confidence = followUpConfidence
			return result
		}
	}
	return result
}
