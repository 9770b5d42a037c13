package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragchat/ragchat/internal/chatlog"
	"github.com/ragchat/ragchat/internal/log"
)

type fakeHistoryReader struct {
	entries []chatlog.Entry
	err     error
	gotID   string
}

func (f *fakeHistoryReader) History(_ context.Context, sessionID string) ([]chatlog.Entry, error) {
	f.gotID = sessionID
	return f.entries, f.err
}

func getPath(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_Messages(t *testing.T) {
	t.Run("returns history in order", func(t *testing.T) {
		f := &fakeHistoryReader{entries: []chatlog.Entry{
			{SessionID: "s1", UserQuery: "q1", AIResponse: "a1", Status: chatlog.StatusOK},
			{SessionID: "s1", UserQuery: "q2", AIResponse: "a2", Status: chatlog.StatusError},
		}}
		mux := http.NewServeMux()
		NewSessionHandler(f, log.NewNop()).RegisterRoutes(mux)

		rec := getPath(mux, "/api/sessions/s1/messages")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "s1", f.gotID)
		assert.Contains(t, rec.Body.String(), `"total":2`)
		assert.Contains(t, rec.Body.String(), "q1")
		assert.Contains(t, rec.Body.String(), "a2")
	})

	t.Run("empty session yields empty array", func(t *testing.T) {
		mux := http.NewServeMux()
		NewSessionHandler(&fakeHistoryReader{}, log.NewNop()).RegisterRoutes(mux)

		rec := getPath(mux, "/api/sessions/unseen/messages")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"messages":[]`)
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		mux := http.NewServeMux()
		NewSessionHandler(&fakeHistoryReader{err: errors.New("db down")}, log.NewNop()).RegisterRoutes(mux)

		rec := getPath(mux, "/api/sessions/s1/messages")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSessionHandler_Create(t *testing.T) {
	mux := http.NewServeMux()
	NewSessionHandler(&fakeHistoryReader{}, log.NewNop()).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["session_id"])
	_, err := uuid.Parse(resp["session_id"])
	assert.NoError(t, err)
}

func TestModelsHandler_List(t *testing.T) {
	mux := http.NewServeMux()
	NewModelsHandler("gemini-2.0-flash", []string{"openrouter/auto"}).RegisterRoutes(mux)

	rec := getPath(mux, "/api/models")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gemini-2.0-flash")
	assert.Contains(t, rec.Body.String(), "openrouter/auto")
}
