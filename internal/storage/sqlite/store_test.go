package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "ashley_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func turnAt(session, input string, intent types.Intent, ts time.Time) *types.ConversationTurn {
	return &types.ConversationTurn{
		SessionID:  session,
		UserInput:  input,
		Intent:     intent,
		Confidence: 0.8,
		Response:   "ok",
		Success:    true,
		Timestamp:  ts,
	}
}

func TestSaveTurnGeneratesIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	turn := &types.ConversationTurn{
		SessionID: "s1",
		UserInput: "hello",
		Intent:    types.IntentGreet,
		Response:  "Hello, sir.",
		Success:   true,
	}
	require.NoError(t, store.SaveTurn(ctx, turn))
	assert.NotEmpty(t, turn.ID)
	assert.False(t, turn.Timestamp.IsZero())
}

func TestSaveTurnRequiresSession(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveTurn(context.Background(), &types.ConversationTurn{UserInput: "hi"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestHistoryChronologicalOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		turn := turnAt("s1", string(rune('a'+i)), types.IntentGreet, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.SaveTurn(ctx, turn))
	}
	require.NoError(t, store.SaveTurn(ctx, turnAt("other", "x", types.IntentGreet, base)))

	got, err := store.History(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// most recent three, oldest first
	assert.Equal(t, "c", got[0].UserInput)
	assert.Equal(t, "d", got[1].UserInput)
	assert.Equal(t, "e", got[2].UserInput)
	for _, turn := range got {
		assert.Equal(t, "s1", turn.SessionID)
	}
}

func TestHistoryRoundTripsEntities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	turn := turnAt("s1", "search for go", types.IntentSearchGoogle, time.Now().UTC())
	turn.Entities = types.EntityMap{types.EntitySearchQuery: {"go"}}
	require.NoError(t, store.SaveTurn(ctx, turn))

	got, err := store.History(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.EntityMap{types.EntitySearchQuery: {"go"}}, got[0].Entities)
}

func TestPreferenceUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetPreference(ctx, &types.UserPreference{Key: "city", Value: "Kolkata"}))
	require.NoError(t, store.SetPreference(ctx, &types.UserPreference{Key: "city", Value: "Delhi", Category: "weather"}))

	got, err := store.GetPreference(ctx, "city")
	require.NoError(t, err)
	assert.Equal(t, "Delhi", got.Value)
	assert.Equal(t, "weather", got.Category)

	all, err := store.ListPreferences(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetPreferenceNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPreference(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestContextUpsertRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := &types.ContextState{
		SessionID:     "s1",
		LastIntent:    types.IntentWeather,
		LastEntities:  types.EntityMap{types.EntityLocation: {"london"}},
		RecentIntents: []types.Intent{types.IntentGreet, types.IntentWeather},
		TurnCount:     2,
	}
	require.NoError(t, store.SaveContext(ctx, state))

	state.LastIntent = types.IntentGetTime
	state.TurnCount = 3
	require.NoError(t, store.SaveContext(ctx, state))

	got, err := store.GetContext(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.IntentGetTime, got.LastIntent)
	assert.Equal(t, 3, got.TurnCount)
	assert.Equal(t, types.EntityMap{types.EntityLocation: {"london"}}, got.LastEntities)
	assert.Equal(t, []types.Intent{types.IntentGreet, types.IntentWeather}, got.RecentIntents)
}

func TestGetContextNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetContext(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCleanupOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.SaveTurn(ctx, turnAt("s1", "old", types.IntentGreet, now.AddDate(0, 0, -40))))
	require.NoError(t, store.SaveTurn(ctx, turnAt("s1", "recent", types.IntentGreet, now)))

	purged, err := store.CleanupOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	got, err := store.History(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].UserInput)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.SaveTurn(ctx, turnAt("s1", "a", types.IntentGreet, now)))
	require.NoError(t, store.SaveTurn(ctx, turnAt("s2", "b", types.IntentGreet, now)))
	failed := turnAt("s2", "c", types.IntentOpenApp, now)
	failed.Success = false
	require.NoError(t, store.SaveTurn(ctx, failed))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTurns)
	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Equal(t, int64(2), stats.SuccessTurns)
}
