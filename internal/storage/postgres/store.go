// Package postgres implements storage.ConversationStore on PostgreSQL via
// lib/pq. Selected with ASHLEY_STORAGE_ENGINE=postgres for deployments that
// outgrow the single-writer SQLite file.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/pkg/types"
)

const defaultHistoryLimit = 10

// Schema creates the assistant's tables. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	user_input  TEXT NOT NULL,
	intent      TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	entities    JSONB,
	response    TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_session
	ON conversations(session_id, timestamp);

CREATE TABLE IF NOT EXISTS user_preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'general',
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS context_memory (
	session_id     TEXT PRIMARY KEY,
	last_intent    TEXT NOT NULL,
	last_entities  JSONB,
	recent_intents JSONB,
	turn_count     INTEGER NOT NULL DEFAULT 0,
	updated_at     TIMESTAMPTZ NOT NULL
);
`

// Store implements storage.ConversationStore using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL with the given DSN and applies the schema.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// SaveTurn appends a completed turn to the conversation log.
func (s *Store) SaveTurn(ctx context.Context, turn *types.ConversationTurn) error {
	if turn == nil {
		return storage.ErrInvalidInput
	}
	if turn.SessionID == "" {
		return fmt.Errorf("%w: session id is required", storage.ErrInvalidInput)
	}
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	entities, err := marshalJSON(turn.Entities)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode entities: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, session_id, user_input, intent, confidence, entities, response, success, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, turn.ID, turn.SessionID, turn.UserInput, string(turn.Intent), turn.Confidence,
		entities, turn.Response, turn.Success, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("postgres: failed to save turn: %w", err)
	}
	return nil
}

// History returns the most recent turns for a session, oldest first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]types.ConversationTurn, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_input, intent, confidence, entities, response, success, timestamp
		FROM conversations
		WHERE session_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query history: %w", err)
	}
	defer rows.Close()

	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// RecentTurns returns the most recent turns across all sessions, newest first.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]types.ConversationTurn, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_input, intent, confidence, entities, response, success, timestamp
		FROM conversations
		ORDER BY timestamp DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query recent turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

// SetPreference upserts a user preference.
func (s *Store) SetPreference(ctx context.Context, pref *types.UserPreference) error {
	if pref == nil || pref.Key == "" {
		return fmt.Errorf("%w: preference key is required", storage.ErrInvalidInput)
	}
	if pref.Category == "" {
		pref.Category = "general"
	}
	pref.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (key, value, category, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at
	`, pref.Key, pref.Value, pref.Category, pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to set preference: %w", err)
	}
	return nil
}

// GetPreference returns a preference by key.
func (s *Store) GetPreference(ctx context.Context, key string) (*types.UserPreference, error) {
	var pref types.UserPreference
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, category, updated_at FROM user_preferences WHERE key = $1
	`, key).Scan(&pref.Key, &pref.Value, &pref.Category, &pref.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get preference: %w", err)
	}
	return &pref, nil
}

// ListPreferences returns all preferences ordered by key.
func (s *Store) ListPreferences(ctx context.Context) ([]types.UserPreference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, category, updated_at FROM user_preferences ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []types.UserPreference
	for rows.Next() {
		var p types.UserPreference
		if err := rows.Scan(&p.Key, &p.Value, &p.Category, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// SaveContext upserts the per-session context state.
func (s *Store) SaveContext(ctx context.Context, state *types.ContextState) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("%w: session id is required", storage.ErrInvalidInput)
	}
	state.UpdatedAt = time.Now().UTC()

	entities, err := marshalJSON(state.LastEntities)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode entities: %w", err)
	}
	recent, err := marshalJSON(state.RecentIntents)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode recent intents: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO context_memory (session_id, last_intent, last_entities, recent_intents, turn_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			last_intent = EXCLUDED.last_intent,
			last_entities = EXCLUDED.last_entities,
			recent_intents = EXCLUDED.recent_intents,
			turn_count = EXCLUDED.turn_count,
			updated_at = EXCLUDED.updated_at
	`, state.SessionID, string(state.LastIntent), entities, recent, state.TurnCount, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to save context: %w", err)
	}
	return nil
}

// GetContext returns the context state for a session.
func (s *Store) GetContext(ctx context.Context, sessionID string) (*types.ContextState, error) {
	var (
		state    types.ContextState
		intent   string
		entities sql.NullString
		recent   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, last_intent, last_entities, recent_intents, turn_count, updated_at
		FROM context_memory WHERE session_id = $1
	`, sessionID).Scan(&state.SessionID, &intent, &entities, &recent, &state.TurnCount, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get context: %w", err)
	}

	state.LastIntent = types.Intent(intent)
	if entities.Valid && entities.String != "" {
		if err := json.Unmarshal([]byte(entities.String), &state.LastEntities); err != nil {
			return nil, fmt.Errorf("postgres: failed to decode entities: %w", err)
		}
	}
	if recent.Valid && recent.String != "" {
		if err := json.Unmarshal([]byte(recent.String), &state.RecentIntents); err != nil {
			return nil, fmt.Errorf("postgres: failed to decode recent intents: %w", err)
		}
	}
	return &state, nil
}

// CleanupOlderThan purges conversations and context rows older than horizon.
func (s *Store) CleanupOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE timestamp < $1`, horizon)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to purge conversations: %w", err)
	}
	purged, _ := res.RowsAffected()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM context_memory WHERE updated_at < $1`, horizon); err != nil {
		return purged, fmt.Errorf("postgres: failed to purge context: %w", err)
	}
	return purged, nil
}

// Stats reports aggregate counts over the conversation log.
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	var stats storage.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT session_id),
		       COUNT(*) FILTER (WHERE success)
		FROM conversations
	`).Scan(&stats.TotalTurns, &stats.TotalSessions, &stats.SuccessTurns)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to read stats: %w", err)
	}
	return &stats, nil
}

func scanTurns(rows *sql.Rows) ([]types.ConversationTurn, error) {
	var turns []types.ConversationTurn
	for rows.Next() {
		var (
			t        types.ConversationTurn
			intent   string
			entities sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserInput, &intent, &t.Confidence,
			&entities, &t.Response, &t.Success, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan turn: %w", err)
		}
		t.Intent = types.Intent(intent)
		if entities.Valid && entities.String != "" {
			if err := json.Unmarshal([]byte(entities.String), &t.Entities); err != nil {
				return nil, fmt.Errorf("postgres: failed to decode entities: %w", err)
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// marshalJSON encodes v for a JSONB column, mapping empty values to NULL.
func marshalJSON(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case types.EntityMap:
		if len(val) == 0 {
			return nil, nil
		}
	case []types.Intent:
		if len(val) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Compile-time assertion.
var _ storage.ConversationStore = (*Store)(nil)
