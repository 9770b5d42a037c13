package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ragchat/ragchat/internal/chat"
	"github.com/ragchat/ragchat/internal/log"
)

// Chat validation constants.
const (
	MaxMessageLength   = 10000
	MaxModelNameLength = 100
)

// Chatter runs one chat turn. Satisfied by *chat.Orchestrator.
type Chatter interface {
	Chat(ctx context.Context, req chat.Request) (*chat.Result, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	orchestrator Chatter
	logger       log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(orchestrator Chatter, logger log.Logger) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.chat)
}

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
}

// ChatResponse is the response body for a chat turn.
type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required", "")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "message too long", "")
		return
	}
	if len(req.Model) > MaxModelNameLength {
		writeError(w, http.StatusBadRequest, "model name too long", "")
		return
	}

	// A client disconnect must not abort the turn mid-flight; the pipeline
	// runs to completion and the turn is logged regardless.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.orchestrator.Chat(ctx, chat.Request{
		SessionID: req.SessionID,
		Question:  req.Message,
		Model:     req.Model,
		APIKey:    req.APIKey,
	})
	if err != nil {
		h.logger.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat failed", "")
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: result.Response, Sources: sources})
}
