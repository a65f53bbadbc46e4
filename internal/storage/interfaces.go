// Package storage defines the persistence interfaces for the assistant:
// the append-only conversation log, the user preference store, and
// per-session context memory. Backends live in the sqlite and postgres
// subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/scrypster/ashley/pkg/types"
)

// Sentinel errors returned by store implementations.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when required fields are missing.
	ErrInvalidInput = errors.New("invalid input")
)

// Stats summarizes the conversation log.
type Stats struct {
	TotalTurns    int64 `json:"total_turns"`
	TotalSessions int64 `json:"total_sessions"`
	SuccessTurns  int64 `json:"success_turns"`
}

// ConversationStore persists turns, preferences, and session context.
//
// Turns are append-only; preferences and context use upsert semantics.
// Implementations must be safe for concurrent use.
type ConversationStore interface {
	// SaveTurn appends a completed turn to the log. A missing ID is
	// generated; a zero timestamp is stamped with the current time.
	SaveTurn(ctx context.Context, turn *types.ConversationTurn) error

	// History returns the most recent turns for a session, oldest first.
	// limit <= 0 selects the implementation default.
	History(ctx context.Context, sessionID string, limit int) ([]types.ConversationTurn, error)

	// RecentTurns returns the most recent turns across all sessions,
	// newest first.
	RecentTurns(ctx context.Context, limit int) ([]types.ConversationTurn, error)

	// SetPreference upserts a user preference.
	SetPreference(ctx context.Context, pref *types.UserPreference) error

	// GetPreference returns a preference by key, or ErrNotFound.
	GetPreference(ctx context.Context, key string) (*types.UserPreference, error)

	// ListPreferences returns all preferences ordered by key.
	ListPreferences(ctx context.Context) ([]types.UserPreference, error)

	// SaveContext upserts the per-session context state.
	SaveContext(ctx context.Context, state *types.ContextState) error

	// GetContext returns the context state for a session, or ErrNotFound.
	GetContext(ctx context.Context, sessionID string) (*types.ContextState, error)

	// CleanupOlderThan purges turns and context rows last touched before
	// the horizon. Returns the number of turns removed.
	CleanupOlderThan(ctx context.Context, horizon time.Time) (int64, error)

	// Stats reports aggregate counts over the conversation log.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the underlying database resources.
	Close() error
}
