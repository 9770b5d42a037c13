package chatlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragchat/ragchat/internal/log"
)

func TestNewStore(t *testing.T) {
	_, err := NewStore(nil, log.NewNop())
	assert.ErrorContains(t, err, "pool is required")
}

func TestStore_Append_RequiresSession(t *testing.T) {
	s := &Store{logger: log.NewNop()}

	err := s.Append(context.Background(), Entry{UserQuery: "hi"})
	assert.ErrorContains(t, err, "session ID is required")
}

func TestStore_History_EmptySession(t *testing.T) {
	s := &Store{logger: log.NewNop()}

	entries, err := s.History(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
