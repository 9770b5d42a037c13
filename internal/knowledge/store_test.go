package knowledge

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragchat/ragchat/internal/log"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = make([]float32, VectorDimension)
		vecs[i][0] = 1
	}
	return vecs, nil
}

func TestNewStore(t *testing.T) {
	t.Run("nil pool", func(t *testing.T) {
		_, err := NewStore(nil, &fakeEmbedder{}, log.NewNop())
		assert.ErrorContains(t, err, "pool is required")
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewStore(new(pgxpool.Pool), nil, log.NewNop())
		assert.ErrorContains(t, err, "embedder is required")
	})
}

func TestNewGeminiEmbedder(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		_, err := NewGeminiEmbedder("", "gemini-embedding-001")
		assert.ErrorContains(t, err, "api key")
	})

	t.Run("missing model", func(t *testing.T) {
		_, err := NewGeminiEmbedder("key", "")
		assert.ErrorContains(t, err, "model")
	})

	t.Run("valid", func(t *testing.T) {
		e, err := NewGeminiEmbedder("key", "gemini-embedding-001")
		require.NoError(t, err)
		assert.NotNil(t, e)
	})
}

func TestGeminiEmbedder_Embed_Empty(t *testing.T) {
	e, err := NewGeminiEmbedder("key", "gemini-embedding-001")
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestStore_Add_EmptyChunks(t *testing.T) {
	fake := &fakeEmbedder{}
	s := &Store{embedder: fake, logger: log.NewNop()}

	require.NoError(t, s.Add(context.Background(), nil))
	assert.Zero(t, fake.calls)
}

func TestStore_Add_EmptyContent(t *testing.T) {
	fake := &fakeEmbedder{}
	s := &Store{embedder: fake, logger: log.NewNop()}

	err := s.Add(context.Background(), []Chunk{{Content: ""}})
	assert.ErrorContains(t, err, "empty content")
	assert.Zero(t, fake.calls)
}

func TestStore_Retrieve_EmptyQuery(t *testing.T) {
	fake := &fakeEmbedder{}
	s := &Store{embedder: fake, logger: log.NewNop()}

	results, err := s.Retrieve(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, fake.calls)
}
