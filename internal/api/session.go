package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ragchat/ragchat/internal/chatlog"
	"github.com/ragchat/ragchat/internal/log"
)

// HistoryReader replays a session's chat log. Satisfied by *chatlog.Store.
type HistoryReader interface {
	History(ctx context.Context, sessionID string) ([]chatlog.Entry, error)
}

// SessionHandler exposes read access to session history.
type SessionHandler struct {
	history HistoryReader
	logger  log.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(history HistoryReader, logger log.Logger) *SessionHandler {
	return &SessionHandler{history: history, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions/{id}/messages", h.messages)
}

// create mints a fresh session identifier. Sessions have no server-side
// state beyond their chat log, so this is purely an ID handout for clients
// that do not generate their own.
func (h *SessionHandler) create(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": uuid.NewString(),
	})
}

// messages returns all turns of a session in chronological order.
func (h *SessionHandler) messages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required", "")
		return
	}

	entries, err := h.history.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load session history", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history", "")
		return
	}
	if entries == nil {
		entries = []chatlog.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   entries,
		"total":      len(entries),
	})
}
