package assistant

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/ashley/internal/session"
	"github.com/scrypster/ashley/internal/storage/sqlite"
	"github.com/scrypster/ashley/pkg/types"
)

// stubResolver returns canned results keyed by input text.
type stubResolver struct {
	results map[string]types.ClassificationResult
	history []string
}

func (s *stubResolver) Resolve(_ context.Context, text string, history []string) types.ClassificationResult {
	s.history = history
	if r, ok := s.results[text]; ok {
		return r
	}
	return types.ClassificationResult{Intent: types.IntentUnknown}
}

func newTestAssistant(t *testing.T, resolver IntentResolver) *Assistant {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "assistant.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.NewManager(store, 0, nil)
	dispatcher := NewDispatcher(Deps{Now: func() time.Time { return dispatchNow }})
	return New(resolver, sessions, dispatcher, nil, nil)
}

func TestHandleCommandRoundTrip(t *testing.T) {
	resolver := &stubResolver{results: map[string]types.ClassificationResult{
		"what time is it": {Intent: types.IntentGetTime, Confidence: 0.6},
	}}
	a := newTestAssistant(t, resolver)

	got, err := a.HandleCommand(context.Background(), Command{Text: "what time is it"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.SessionID)
	assert.Equal(t, types.IntentGetTime, got.Intent)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
	assert.Equal(t, "Sir, the time is 03:04 PM", got.Response)
	assert.True(t, got.Success)
}

func TestHandleCommandEmptyText(t *testing.T) {
	a := newTestAssistant(t, &stubResolver{})

	_, err := a.HandleCommand(context.Background(), Command{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestHandleCommandKeepsSessionID(t *testing.T) {
	a := newTestAssistant(t, &stubResolver{})

	got, err := a.HandleCommand(context.Background(), Command{SessionID: "s-42", Text: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "s-42", got.SessionID)
}

func TestHandleCommandRepeatUsesLastResponse(t *testing.T) {
	resolver := &stubResolver{results: map[string]types.ClassificationResult{
		"what time is it": {Intent: types.IntentGetTime, Confidence: 0.6},
		"say that again":  {Intent: types.IntentRepeat, Confidence: 0.6},
	}}
	a := newTestAssistant(t, resolver)

	first, err := a.HandleCommand(context.Background(), Command{SessionID: "s-1", Text: "what time is it"})
	require.NoError(t, err)

	second, err := a.HandleCommand(context.Background(), Command{SessionID: "s-1", Text: "say that again"})
	require.NoError(t, err)
	assert.Equal(t, "I said: "+first.Response, second.Response)

	// a different session has nothing to repeat
	other, err := a.HandleCommand(context.Background(), Command{SessionID: "s-2", Text: "say that again"})
	require.NoError(t, err)
	assert.Equal(t, "I don't have anything to repeat yet.", other.Response)
}

func TestHandleCommandHistoryOnlyWithUseContext(t *testing.T) {
	resolver := &stubResolver{results: map[string]types.ClassificationResult{
		"first": {Intent: types.IntentGetTime, Confidence: 0.6},
	}}
	a := newTestAssistant(t, resolver)

	_, err := a.HandleCommand(context.Background(), Command{SessionID: "s-1", Text: "first"})
	require.NoError(t, err)

	_, err = a.HandleCommand(context.Background(), Command{SessionID: "s-1", Text: "second"})
	require.NoError(t, err)
	assert.Empty(t, resolver.history)

	_, err = a.HandleCommand(context.Background(), Command{SessionID: "s-1", Text: "third", UseContext: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, resolver.history)
}

func TestHandleCommandPersistsTurns(t *testing.T) {
	resolver := &stubResolver{results: map[string]types.ClassificationResult{
		"what time is it": {Intent: types.IntentGetTime, Confidence: 0.6},
	}}

	store, err := sqlite.New(filepath.Join(t.TempDir(), "assistant.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.NewManager(store, 0, nil)
	dispatcher := NewDispatcher(Deps{Now: func() time.Time { return dispatchNow }})
	a := New(resolver, sessions, dispatcher, nil, nil)

	got, err := a.HandleCommand(context.Background(), Command{SessionID: "s-1", Text: "what time is it"})
	require.NoError(t, err)

	turns, err := store.History(context.Background(), "s-1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "what time is it", turns[0].UserInput)
	assert.Equal(t, got.Response, turns[0].Response)
	assert.True(t, turns[0].Success)
}
