// Package types defines the shared domain types for the Ashley assistant:
// utterances, classification results, conversation turns, and the intent
// vocabulary used across the classifier, dispatcher, and storage layers.
package types

import "time"

// EntityKind names a category of value extracted from free text.
type EntityKind string

// Entity kinds recognized by the extractor.
const (
	EntityLocation    EntityKind = "location"
	EntityTime        EntityKind = "time"
	EntityAppName     EntityKind = "app_name"
	EntitySearchQuery EntityKind = "search_query"
	EntityAlarmTime   EntityKind = "alarm_time"
)

// EntityMap maps an entity kind to the values extracted for it, in order of
// discovery in the text. Duplicates are kept; callers that want a single
// value take the first element.
type EntityMap map[EntityKind][]string

// First returns the first extracted value for the given kind, or the
// fallback when the kind is absent or empty.
func (m EntityMap) First(kind EntityKind, fallback string) string {
	if vals, ok := m[kind]; ok && len(vals) > 0 {
		return vals[0]
	}
	return fallback
}

// Clone returns a deep copy of the map. Used when a result is handed to a
// layer that must not observe later mutation.
func (m EntityMap) Clone() EntityMap {
	if m == nil {
		return nil
	}
	out := make(EntityMap, len(m))
	for k, v := range m {
		vals := make([]string, len(v))
		copy(vals, v)
		out[k] = vals
	}
	return out
}

// Utterance is a single normalized user input. Immutable once produced.
type Utterance struct {
	// Raw is the text exactly as received.
	Raw string `json:"raw"`

	// Normalized is the lowercase, whitespace-collapsed, contraction-expanded
	// form used for classification.
	Normalized string `json:"normalized"`

	// Timestamp records when the utterance was received.
	Timestamp time.Time `json:"timestamp"`
}

// ClassificationResult is the outcome of classifying one utterance.
// Produced once per utterance and consumed immediately by the dispatcher.
type ClassificationResult struct {
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Entities   EntityMap `json:"entities"`
}

// ConversationTurn is one completed request/response cycle, appended to the
// session log after dispatch finishes.
type ConversationTurn struct {
	ID         string    `json:"id,omitempty"`
	SessionID  string    `json:"session_id"`
	UserInput  string    `json:"user_input"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Entities   EntityMap `json:"entities,omitempty"`
	Response   string    `json:"response"`
	Success    bool      `json:"success"`
	Timestamp  time.Time `json:"timestamp"`
}

// ContextState is the per-session short-term memory consulted during
// classification. It is read-only while a turn is classified and updated
// only after dispatch completes.
type ContextState struct {
	SessionID     string    `json:"session_id"`
	LastIntent    Intent    `json:"last_intent"`
	LastEntities  EntityMap `json:"last_entities,omitempty"`
	RecentIntents []Intent  `json:"recent_intents,omitempty"`
	TurnCount     int       `json:"turn_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserPreference is a persisted key/value user setting.
type UserPreference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Category  string    `json:"category"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KnowledgeSection is a named section of static reference text used by the
// knowledge retriever. Read-only after load.
type KnowledgeSection struct {
	Name    string
	Content []string
}
