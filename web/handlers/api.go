package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/scrypster/ashley/internal/assistant"
	"github.com/scrypster/ashley/internal/config"
	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/pkg/types"
)

// CommandPipeline runs one command through the classify-dispatch cycle.
// Satisfied by *assistant.Assistant.
type CommandPipeline interface {
	HandleCommand(ctx context.Context, cmd assistant.Command) (*assistant.Result, error)
}

// SessionCounter reports how many sessions the server has seen. Satisfied by
// *session.Manager.
type SessionCounter interface {
	Sessions() int
}

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CommandRequest is the request format for POST /api/command.
type CommandRequest struct {
	Text       string `json:"text"`
	SessionID  string `json:"session_id,omitempty"`
	UseContext bool   `json:"use_context,omitempty"`
}

// HistoryResponse is the response format for GET /api/history.
type HistoryResponse struct {
	SessionID string                   `json:"session_id"`
	Turns     []types.ConversationTurn `json:"turns"`
}

// TimeResponse is the response format for GET /api/time (12-hour clock).
type TimeResponse struct {
	Time     string `json:"time"`
	Date     string `json:"date"`
	DateTime string `json:"datetime"`
}

// StatsResponse is the response format for GET /api/stats.
type StatsResponse struct {
	TotalTurns    int64 `json:"total_turns"`
	TotalSessions int64 `json:"total_sessions"`
	SuccessTurns  int64 `json:"success_turns"`
	ActiveSession int   `json:"active_sessions"`
	RetentionDays int   `json:"retention_days"`
}

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	pipeline CommandPipeline
	store    storage.ConversationStore
	sessions SessionCounter
	config   *config.Config
}

// NewAPIHandlers creates a new APIHandlers instance. sessions may be nil; the
// stats endpoint then reports zero active sessions.
func NewAPIHandlers(pipeline CommandPipeline, store storage.ConversationStore, sessions SessionCounter, cfg *config.Config) *APIHandlers {
	return &APIHandlers{
		pipeline: pipeline,
		store:    store,
		sessions: sessions,
		config:   cfg,
	}
}

// HandleCommand handles POST /api/command - run one command through the
// pipeline and return the completed turn.
func (h *APIHandlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.pipeline.HandleCommand(r.Context(), assistant.Command{
		SessionID:  req.SessionID,
		Text:       req.Text,
		UseContext: req.UseContext,
	})
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyCommand) {
			respondError(w, http.StatusBadRequest, "text is required", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to process command", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /api/history?session_id=&limit= - recent turns for
// one session, oldest first.
func (h *APIHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required", nil)
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), 10)
	if limit > 100 {
		limit = 100
	}

	turns, err := h.store.History(r.Context(), sessionID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history", err)
		return
	}
	if turns == nil {
		turns = []types.ConversationTurn{}
	}

	respondJSON(w, http.StatusOK, HistoryResponse{SessionID: sessionID, Turns: turns})
}

// ListPreferences handles GET /api/preferences.
func (h *APIHandlers) ListPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.store.ListPreferences(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list preferences", err)
		return
	}
	if prefs == nil {
		prefs = []types.UserPreference{}
	}
	respondJSON(w, http.StatusOK, prefs)
}

// SetPreference handles POST /api/preferences - upsert one preference.
func (h *APIHandlers) SetPreference(w http.ResponseWriter, r *http.Request) {
	var pref types.UserPreference
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if pref.Key == "" {
		respondError(w, http.StatusBadRequest, "key is required", nil)
		return
	}

	if err := h.store.SetPreference(r.Context(), &pref); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save preference", err)
		return
	}
	respondJSON(w, http.StatusOK, pref)
}

// GetPreference handles GET /api/preferences/{key}.
func (h *APIHandlers) GetPreference(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "preference key is required", nil)
		return
	}

	pref, err := h.store.GetPreference(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "preference not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load preference", err)
		return
	}
	respondJSON(w, http.StatusOK, pref)
}

// GetTime handles GET /api/time - the current time on a 12-hour clock.
func (h *APIHandlers) GetTime(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	respondJSON(w, http.StatusOK, TimeResponse{
		Time:     now.Format("03:04 PM"),
		Date:     now.Format("Monday, January 02, 2006"),
		DateTime: now.Format("Monday, January 02, 2006 03:04 PM"),
	})
}

// Health handles GET /api/health. Never requires auth.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStats handles GET /api/stats.
func (h *APIHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load stats", err)
		return
	}

	active := 0
	if h.sessions != nil {
		active = h.sessions.Sessions()
	}
	respondJSON(w, http.StatusOK, StatsResponse{
		TotalTurns:    stats.TotalTurns,
		TotalSessions: stats.TotalSessions,
		SuccessTurns:  stats.SuccessTurns,
		ActiveSession: active,
		RetentionDays: h.config.Storage.RetentionDays,
	})
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing more to do than note it.
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}
