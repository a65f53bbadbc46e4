package nlp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/ashley/pkg/types"
)

func newTestResolver() *Resolver {
	return NewResolver(newTestClassifier(nil), types.DefaultFollowUpTable())
}

func TestResolveFollowUpCarriesPreviousIntent(t *testing.T) {
	r := newTestResolver()
	history := []string{"search for python tutorials"}

	got := r.Resolve(context.Background(), "show me more about that", history)
	assert.Equal(t, types.IntentSearchGoogle, got.Intent)
	assert.Equal(t, followUpConfidence, got.Confidence)
}

// Follow-up resolution only fires when lexical classification comes back
// unknown. "tell me more about that" overlaps the "tell me the time" pattern
// enough (word overlap plus the content-word bonus for "tell") to clear the
// lexical floor, so it resolves as get_time at the lexical-only confidence
// and never reaches the follow-up table, even with a search turn in history.
func TestResolveLexicalMatchPreemptsFollowUp(t *testing.T) {
	r := newTestResolver()
	history := []string{"search for python tutorials"}

	got := r.Resolve(context.Background(), "tell me more about that", history)
	assert.Equal(t, types.IntentGetTime, got.Intent)
	assert.Equal(t, lexicalOnlyConf, got.Confidence)
}

func TestResolveNonFollowUpStaysUnknown(t *testing.T) {
	r := newTestResolver()
	history := []string{"search for python tutorials"}

	got := r.Resolve(context.Background(), "xylophone quantum banana", history)
	assert.Equal(t, types.IntentUnknown, got.Intent)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestResolveConfidentResultIsNotOverridden(t *testing.T) {
	r := newTestResolver()
	history := []string{"search for python tutorials"}

	got := r.Resolve(context.Background(), "what time is it", history)
	assert.Equal(t, types.IntentGetTime, got.Intent)
}

func TestResolveEmptyHistory(t *testing.T) {
	r := newTestResolver()

	got := r.Resolve(context.Background(), "show me more about that", nil)
	assert.Equal(t, types.IntentUnknown, got.Intent)
}

func TestResolveDoesNotMutateHistory(t *testing.T) {
	r := newTestResolver()
	history := []string{"what is the weather in london", "search for python tutorials"}

	r.Resolve(context.Background(), "show me more about that", history)
	assert.Equal(t, []string{"what is the weather in london", "search for python tutorials"}, history)
}

func TestResolvePreviousIntentWithoutTriggerTable(t *testing.T) {
	r := newTestResolver()
	// get_time has no follow-up triggers, so the unknown result stands.
	history := []string{"what time is it"}

	got := r.Resolve(context.Background(), "show me more about that", history)
	assert.Equal(t, types.IntentUnknown, got.Intent)
}
