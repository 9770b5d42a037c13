// Package chat orchestrates one conversational turn: load session history,
// retrieve relevant document chunks, call the model, and persist the turn.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ragchat/ragchat/internal/chatlog"
	"github.com/ragchat/ragchat/internal/knowledge"
	"github.com/ragchat/ragchat/internal/llm"
)

// noContextPlaceholder stands in for retrieved context when the knowledge
// store has nothing relevant or retrieval itself failed.
const noContextPlaceholder = "No relevant context found."

// systemPromptFormat frames the retrieved chunks for the model.
const systemPromptFormat = `You are a helpful assistant. Use the following document context to answer the user's question. If the context is not relevant, answer from your general knowledge.

Context:
%s`

// HistoryStore persists and replays chat turns.
type HistoryStore interface {
	Append(ctx context.Context, e chatlog.Entry) error
	History(ctx context.Context, sessionID string) ([]chatlog.Entry, error)
}

// Retriever finds document chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]knowledge.Result, error)
}

// Generator dispatches a conversation to a model provider.
type Generator interface {
	Generate(ctx context.Context, model, callerKey string, messages []llm.Message) (string, error)
}

// Request is one incoming chat turn.
type Request struct {
	SessionID string
	Question  string
	Model     string
	APIKey    string
}

// Result is the outcome returned to the client. Response always holds text,
// even when the model call failed.
type Result struct {
	Response string
	Sources  []string
}

// Orchestrator runs the retrieval-augmented chat pipeline.
type Orchestrator struct {
	history      HistoryStore
	retriever    Retriever
	generator    Generator
	defaultModel string
	topK         int
	logger       *slog.Logger
}

// NewOrchestrator creates a chat Orchestrator.
func NewOrchestrator(history HistoryStore, retriever Retriever, generator Generator,
	defaultModel string, topK int, logger *slog.Logger) (*Orchestrator, error) {
	if history == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		history:      history,
		retriever:    retriever,
		generator:    generator,
		defaultModel: defaultModel,
		topK:         topK,
		logger:       logger,
	}, nil
}

// Chat executes one turn. The turn is appended to the session log whether or
// not the model call succeeded, so history always matches what the client saw.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (*Result, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	model := req.Model
	if model == "" {
		model = o.defaultModel
	}

	// A history read failure degrades to a fresh conversation rather than
	// failing the turn. The turn itself is still logged below.
	history, err := o.history.History(ctx, req.SessionID)
	if err != nil {
		o.logger.Warn("failed to load history", "session_id", req.SessionID, "error", err)
		history = nil
	}

	// Retrieval failure degrades to an answer without document context
	// instead of failing the turn.
	contextText, sources := o.retrieve(ctx, req.Question)

	messages := assembleMessages(contextText, history, req.Question)

	status := chatlog.StatusOK
	response, genErr := o.generator.Generate(ctx, model, req.APIKey, messages)
	if genErr != nil {
		status = chatlog.StatusError
		response = renderError(model, genErr)
		o.logger.Error("model call failed", "model", model, "session_id", req.SessionID, "error", genErr)
	}

	// Persist even if the client has gone away.
	logCtx := context.WithoutCancel(ctx)
	if err := o.history.Append(logCtx, chatlog.Entry{
		SessionID:  req.SessionID,
		UserQuery:  req.Question,
		AIResponse: response,
		Model:      model,
		Status:     status,
	}); err != nil {
		return nil, fmt.Errorf("appending chat log: %w", err)
	}

	return &Result{Response: response, Sources: sources}, nil
}

// retrieve fetches context chunks and the distinct sources they came from.
func (o *Orchestrator) retrieve(ctx context.Context, question string) (string, []string) {
	results, err := o.retriever.Retrieve(ctx, question, o.topK)
	if err != nil {
		o.logger.Warn("retrieval failed, continuing without context", "error", err)
		return noContextPlaceholder, []string{}
	}
	if len(results) == 0 {
		return noContextPlaceholder, []string{}
	}

	chunks := make([]string, len(results))
	sources := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for i, r := range results {
		chunks[i] = r.Content
		if _, ok := seen[r.Source]; !ok && r.Source != "" {
			seen[r.Source] = struct{}{}
			sources = append(sources, r.Source)
		}
	}
	return strings.Join(chunks, "\n\n"), sources
}

// assembleMessages builds the provider conversation: system prompt with
// context, then the session history verbatim, then the current question.
func assembleMessages(contextText string, history []chatlog.Entry, question string) []llm.Message {
	messages := make([]llm.Message, 0, 2*len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(systemPromptFormat, contextText),
	})
	for _, e := range history {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: e.UserQuery},
			llm.Message{Role: llm.RoleAssistant, Content: e.AIResponse},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: question})
}

// renderError turns a provider failure into the response text stored and
// returned for the turn.
func renderError(model string, err error) string {
	if errors.Is(err, llm.ErrMissingCredential) {
		return fmt.Sprintf("Configuration error: no API key available for model %s. Provide an api_key with the request or configure a server key.", model)
	}
	return fmt.Sprintf("Error with model %s: %v", model, err)
}
