package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragchat/ragchat/internal/chatlog"
	"github.com/ragchat/ragchat/internal/knowledge"
	"github.com/ragchat/ragchat/internal/llm"
	"github.com/ragchat/ragchat/internal/log"
)

type fakeHistory struct {
	entries    []chatlog.Entry
	appendErr  error
	historyErr error
}

func (f *fakeHistory) Append(_ context.Context, e chatlog.Entry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) History(_ context.Context, sessionID string) ([]chatlog.Entry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	var out []chatlog.Entry
	for _, e := range f.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRetriever struct {
	results []knowledge.Result
	err     error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) ([]knowledge.Result, error) {
	return f.results, f.err
}

type fakeGenerator struct {
	response string
	err      error
	messages []llm.Message
	model    string
	apiKey   string
}

func (f *fakeGenerator) Generate(_ context.Context, model, callerKey string, messages []llm.Message) (string, error) {
	f.model = model
	f.apiKey = callerKey
	f.messages = messages
	return f.response, f.err
}

func newOrchestrator(t *testing.T, h *fakeHistory, r *fakeRetriever, g *fakeGenerator) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(h, r, g, "gemini-2.0-flash", 2, log.NewNop())
	require.NoError(t, err)
	return o
}

func TestOrchestrator_Chat(t *testing.T) {
	t.Run("successful turn returns response and sources", func(t *testing.T) {
		h := &fakeHistory{}
		r := &fakeRetriever{results: []knowledge.Result{
			{Content: "chunk one", Source: "report.pdf"},
			{Content: "chunk two", Source: "report.pdf"},
		}}
		g := &fakeGenerator{response: "the answer"}
		o := newOrchestrator(t, h, r, g)

		result, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "what is it?"})
		require.NoError(t, err)
		assert.Equal(t, "the answer", result.Response)
		assert.Equal(t, []string{"report.pdf"}, result.Sources)

		require.Len(t, h.entries, 1)
		assert.Equal(t, chatlog.StatusOK, h.entries[0].Status)
		assert.Equal(t, "what is it?", h.entries[0].UserQuery)
		assert.Equal(t, "the answer", h.entries[0].AIResponse)
	})

	t.Run("history appears verbatim in the prompt", func(t *testing.T) {
		h := &fakeHistory{entries: []chatlog.Entry{
			{SessionID: "s1", UserQuery: "first question", AIResponse: "first answer"},
			{SessionID: "s1", UserQuery: "second question", AIResponse: "second answer"},
		}}
		g := &fakeGenerator{response: "third answer"}
		o := newOrchestrator(t, h, &fakeRetriever{}, g)

		_, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "third question"})
		require.NoError(t, err)

		require.Len(t, g.messages, 6) // system + 2 turns + question
		assert.Equal(t, llm.RoleSystem, g.messages[0].Role)
		assert.Equal(t, "first question", g.messages[1].Content)
		assert.Equal(t, "first answer", g.messages[2].Content)
		assert.Equal(t, llm.RoleAssistant, g.messages[2].Role)
		assert.Equal(t, "second question", g.messages[3].Content)
		assert.Equal(t, "second answer", g.messages[4].Content)
		assert.Equal(t, "third question", g.messages[5].Content)
		assert.Equal(t, llm.RoleUser, g.messages[5].Role)
	})

	t.Run("retrieval failure degrades to placeholder", func(t *testing.T) {
		h := &fakeHistory{}
		r := &fakeRetriever{err: errors.New("connection refused")}
		g := &fakeGenerator{response: "answered anyway"}
		o := newOrchestrator(t, h, r, g)

		result, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, "answered anyway", result.Response)
		assert.Empty(t, result.Sources)
		assert.NotNil(t, result.Sources)
		assert.Contains(t, g.messages[0].Content, noContextPlaceholder)
	})

	t.Run("history read failure degrades to empty history", func(t *testing.T) {
		h := &fakeHistory{historyErr: errors.New("connection refused")}
		g := &fakeGenerator{response: "fresh answer"}
		o := newOrchestrator(t, h, &fakeRetriever{}, g)

		result, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, "fresh answer", result.Response)

		require.Len(t, g.messages, 2) // system + question, no prior turns
		require.Len(t, h.entries, 1)
		assert.Equal(t, chatlog.StatusOK, h.entries[0].Status)
	})

	t.Run("missing credential yields configuration error and still logs", func(t *testing.T) {
		h := &fakeHistory{}
		g := &fakeGenerator{err: fmt.Errorf("openai: %w", llm.ErrMissingCredential)}
		o := newOrchestrator(t, h, &fakeRetriever{}, g)

		result, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q", Model: "gpt-4"})
		require.NoError(t, err)
		assert.Contains(t, result.Response, "Configuration error")
		assert.Contains(t, result.Response, "gpt-4")

		require.Len(t, h.entries, 1)
		assert.Equal(t, chatlog.StatusError, h.entries[0].Status)
		assert.Equal(t, result.Response, h.entries[0].AIResponse)
	})

	t.Run("provider failure yields error text and still logs", func(t *testing.T) {
		h := &fakeHistory{}
		g := &fakeGenerator{err: errors.New("openai returned status 500: boom")}
		o := newOrchestrator(t, h, &fakeRetriever{}, g)

		result, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q", Model: "gpt-4"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result.Response, "Error with model gpt-4:"))
		assert.Contains(t, result.Response, "status 500")

		require.Len(t, h.entries, 1)
		assert.Equal(t, chatlog.StatusError, h.entries[0].Status)
	})

	t.Run("empty model uses the default", func(t *testing.T) {
		h := &fakeHistory{}
		g := &fakeGenerator{response: "ok"}
		o := newOrchestrator(t, h, &fakeRetriever{}, g)

		_, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.0-flash", g.model)
		assert.Equal(t, "gemini-2.0-flash", h.entries[0].Model)
	})

	t.Run("caller key is forwarded", func(t *testing.T) {
		g := &fakeGenerator{response: "ok"}
		o := newOrchestrator(t, &fakeHistory{}, &fakeRetriever{}, g)

		_, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q", APIKey: "caller-key"})
		require.NoError(t, err)
		assert.Equal(t, "caller-key", g.apiKey)
	})

	t.Run("sources are distinct preserving order", func(t *testing.T) {
		r := &fakeRetriever{results: []knowledge.Result{
			{Content: "a", Source: "b.pdf"},
			{Content: "b", Source: "a.docx"},
			{Content: "c", Source: "b.pdf"},
		}}
		g := &fakeGenerator{response: "ok"}
		o := newOrchestrator(t, &fakeHistory{}, r, g)

		result, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, []string{"b.pdf", "a.docx"}, result.Sources)
	})

	t.Run("append failure fails the turn", func(t *testing.T) {
		h := &fakeHistory{appendErr: errors.New("disk full")}
		o := newOrchestrator(t, h, &fakeRetriever{}, &fakeGenerator{response: "ok"})

		_, err := o.Chat(context.Background(), Request{SessionID: "s1", Question: "q"})
		assert.ErrorContains(t, err, "appending chat log")
	})

	t.Run("missing session or question", func(t *testing.T) {
		o := newOrchestrator(t, &fakeHistory{}, &fakeRetriever{}, &fakeGenerator{})

		_, err := o.Chat(context.Background(), Request{Question: "q"})
		assert.ErrorContains(t, err, "session ID")

		_, err = o.Chat(context.Background(), Request{SessionID: "s1", Question: "  "})
		assert.ErrorContains(t, err, "question")
	})
}

func TestNewOrchestrator_Validation(t *testing.T) {
	_, err := NewOrchestrator(nil, &fakeRetriever{}, &fakeGenerator{}, "m", 2, log.NewNop())
	assert.ErrorContains(t, err, "history store")

	_, err = NewOrchestrator(&fakeHistory{}, nil, &fakeGenerator{}, "m", 2, log.NewNop())
	assert.ErrorContains(t, err, "retriever")

	_, err = NewOrchestrator(&fakeHistory{}, &fakeRetriever{}, nil, "m", 2, log.NewNop())
	assert.ErrorContains(t, err, "generator")
}
