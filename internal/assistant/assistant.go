package assistant

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/ashley/internal/session"
	"github.com/scrypster/ashley/internal/speech"
	"github.com/scrypster/ashley/pkg/types"
)

// ErrEmptyCommand reports a blank or whitespace-only command.
var ErrEmptyCommand = errors.New("assistant: empty command")

// IntentResolver classifies text with optional conversation history.
// Satisfied by *nlp.Resolver.
type IntentResolver interface {
	Resolve(ctx context.Context, text string, history []string) types.ClassificationResult
}

// Command is one user request entering the pipeline.
type Command struct {
	SessionID  string
	Text       string
	UseContext bool
}

// Result is the completed turn handed back to the caller (HTTP handler,
// websocket, or CLI loop).
type Result struct {
	SessionID  string          `json:"session_id"`
	Intent     types.Intent    `json:"intent"`
	Confidence float64         `json:"confidence"`
	Entities   types.EntityMap `json:"entities,omitempty"`
	Response   string          `json:"response"`
	Success    bool            `json:"success"`
}

// Assistant runs the full turn cycle: resolve intent, dispatch, record the
// turn, speak the response. Per-session state access is serialized by the
// session manager; distinct sessions proceed in parallel.
type Assistant struct {
	resolver   IntentResolver
	sessions   *session.Manager
	dispatcher *Dispatcher
	speaker    speech.Speaker
	logger     *log.Logger

	mu            sync.Mutex
	lastResponses map[string]string // per-session, for the repeat intent
}

// New assembles the assistant. speaker may be nil when responses are
// delivered only as text.
func New(resolver IntentResolver, sessions *session.Manager, dispatcher *Dispatcher, speaker speech.Speaker, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Default()
	}
	return &Assistant{
		resolver:      resolver,
		sessions:      sessions,
		dispatcher:    dispatcher,
		speaker:       speaker,
		logger:        logger,
		lastResponses: make(map[string]string),
	}
}

// HandleCommand processes one command end to end and returns the turn
// result. A missing session id gets a fresh UUID, reported in the result.
func (a *Assistant) HandleCommand(ctx context.Context, cmd Command) (*Result, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return nil, ErrEmptyCommand
	}
	sessionID := session.EnsureID(cmd.SessionID)

	var result *Result
	err := a.sessions.WithSession(ctx, sessionID, func(s *session.Session) error {
		var history []string
		if cmd.UseContext {
			history = s.History()
		}

		cls := a.resolver.Resolve(ctx, text, history)
		a.logger.Printf("session %s: intent=%s confidence=%.2f", sessionID, cls.Intent, cls.Confidence)

		response, success := a.dispatcher.Dispatch(ctx, Request{
			Intent:       cls.Intent,
			RawText:      text,
			Entities:     cls.Entities,
			LastResponse: a.lastResponse(sessionID),
		})

		turn := &types.ConversationTurn{
			UserInput:  text,
			Intent:     cls.Intent,
			Confidence: cls.Confidence,
			Entities:   cls.Entities,
			Response:   response,
			Success:    success,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.RecordTurn(ctx, turn); err != nil {
			a.logger.Printf("session %s: failed to record turn: %v", sessionID, err)
		}
		a.setLastResponse(sessionID, response)

		result = &Result{
			SessionID:  sessionID,
			Intent:     cls.Intent,
			Confidence: cls.Confidence,
			Entities:   cls.Entities,
			Response:   response,
			Success:    success,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.speaker != nil {
		if err := a.speaker.Speak(ctx, result.Response, speech.SpeakOptions{}); err != nil {
			a.logger.Printf("session %s: speak failed: %v", sessionID, err)
		}
	}
	return result, nil
}

func (a *Assistant) lastResponse(sessionID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastResponses[sessionID]
}

func (a *Assistant) setLastResponse(sessionID, response string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastResponses[sessionID] = response
}
