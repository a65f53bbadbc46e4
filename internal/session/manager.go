// Package session serializes per-session access to conversation history and
// context state. Each session id owns an independent unit of state; turns
// for the same session never interleave, while distinct sessions proceed in
// parallel.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/pkg/types"
)

// DefaultMaxHistory bounds the in-memory utterance window per session.
const DefaultMaxHistory = 10

// Manager owns the per-session state. All mutation goes through WithSession,
// which holds the session's lock for the whole read-classify-dispatch-write
// cycle.
type Manager struct {
	store      storage.ConversationStore
	maxHistory int
	logger     *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Session is the state owned by one session id. Only valid inside the
// WithSession callback that produced it.
type Session struct {
	mu      sync.Mutex
	manager *Manager
	id      string
	history []string // bounded FIFO of prior user inputs
	state   types.ContextState
}

// NewManager creates a session manager backed by store. maxHistory <= 0
// selects the default window.
func NewManager(store storage.ConversationStore, maxHistory int, logger *log.Logger) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		store:      store,
		maxHistory: maxHistory,
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// EnsureID returns the given session id, or a fresh UUID when empty.
func EnsureID(sessionID string) string {
	if sessionID == "" {
		return uuid.New().String()
	}
	return sessionID
}

// WithSession runs fn while holding the session's lock. The session is
// created (and hydrated from storage) on first use.
func (m *Manager) WithSession(ctx context.Context, sessionID string, fn func(*Session) error) error {
	s := m.session(ctx, sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (m *Manager) session(ctx context.Context, sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		return s
	}

	s := &Session{
		manager: m,
		id:      sessionID,
		state:   types.ContextState{SessionID: sessionID},
	}
	m.hydrate(ctx, s)
	m.sessions[sessionID] = s
	return s
}

// hydrate warms a new session from persisted history and context so a
// restarted server still resolves follow-ups. Failures degrade to an empty
// session.
func (m *Manager) hydrate(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}

	turns, err := m.store.History(ctx, s.id, m.maxHistory)
	if err != nil {
		m.logger.Printf("session %s: failed to load history: %v", s.id, err)
	}
	for _, t := range turns {
		s.history = append(s.history, t.UserInput)
	}

	state, err := m.store.GetContext(ctx, s.id)
	switch {
	case err == nil:
		s.state = *state
	case errors.Is(err, storage.ErrNotFound):
	default:
		m.logger.Printf("session %s: failed to load context: %v", s.id, err)
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// History returns a copy of the prior user inputs, oldest first.
func (s *Session) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// State returns a copy of the current context state.
func (s *Session) State() types.ContextState {
	st := s.state
	st.LastEntities = s.state.LastEntities.Clone()
	st.RecentIntents = append([]types.Intent(nil), s.state.RecentIntents...)
	return st
}

// RecordTurn appends a completed turn: persists it, advances the bounded
// history window, and upserts the context state. Called after dispatch
// completes, never during classification.
func (s *Session) RecordTurn(ctx context.Context, turn *types.ConversationTurn) error {
	m := s.manager
	turn.SessionID = s.id

	if m.store != nil {
		if err := m.store.SaveTurn(ctx, turn); err != nil {
			return err
		}
	}

	s.history = append(s.history, turn.UserInput)
	if len(s.history) > m.maxHistory {
		s.history = s.history[len(s.history)-m.maxHistory:]
	}

	s.state.LastIntent = turn.Intent
	s.state.LastEntities = turn.Entities.Clone()
	s.state.RecentIntents = append(s.state.RecentIntents, turn.Intent)
	if len(s.state.RecentIntents) > m.maxHistory {
		s.state.RecentIntents = s.state.RecentIntents[len(s.state.RecentIntents)-m.maxHistory:]
	}
	s.state.TurnCount++

	if m.store != nil {
		if err := m.store.SaveContext(ctx, &s.state); err != nil {
			m.logger.Printf("session %s: failed to persist context: %v", s.id, err)
		}
	}
	return nil
}

// Sessions reports the number of sessions seen since startup.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
