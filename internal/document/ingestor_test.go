package document

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragchat/ragchat/internal/knowledge"
	"github.com/ragchat/ragchat/internal/log"
)

type fakeAdder struct {
	chunks []knowledge.Chunk
	err    error
}

func (f *fakeAdder) Add(_ context.Context, chunks []knowledge.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func TestNewIngestor(t *testing.T) {
	_, err := NewIngestor(nil, 1000, 200, log.NewNop())
	assert.ErrorContains(t, err, "store is required")

	_, err = NewIngestor(&fakeAdder{}, 0, 0, log.NewNop())
	assert.ErrorContains(t, err, "chunk size")
}

func TestIngestor_Ingest(t *testing.T) {
	t.Run("docx becomes stored chunks with metadata", func(t *testing.T) {
		adder := &fakeAdder{}
		ing, err := NewIngestor(adder, 1000, 200, log.NewNop())
		require.NoError(t, err)

		path := writeDOCX(t, "Some meaningful document text.")
		n, err := ing.Ingest(context.Background(), path, Metadata{
			FileName:  "manual.docx",
			UserID:    "u1",
			SessionID: "s1",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.Len(t, adder.chunks, 1)
		assert.Equal(t, "Some meaningful document text.", adder.chunks[0].Content)
		assert.Equal(t, "manual.docx", adder.chunks[0].Source)
		assert.Equal(t, "u1", adder.chunks[0].UserID)
		assert.Equal(t, "s1", adder.chunks[0].SessionID)
	})

	t.Run("source defaults to file name", func(t *testing.T) {
		adder := &fakeAdder{}
		ing, err := NewIngestor(adder, 1000, 200, log.NewNop())
		require.NoError(t, err)

		path := writeDOCX(t, "content")
		_, err = ing.Ingest(context.Background(), path, Metadata{})
		require.NoError(t, err)
		assert.Equal(t, "test.docx", adder.chunks[0].Source)
	})

	t.Run("unsupported type propagates", func(t *testing.T) {
		ing, err := NewIngestor(&fakeAdder{}, 1000, 200, log.NewNop())
		require.NoError(t, err)

		_, err = ing.Ingest(context.Background(), "notes.txt", Metadata{})
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		ing, err := NewIngestor(&fakeAdder{err: errors.New("db down")}, 1000, 200, log.NewNop())
		require.NoError(t, err)

		path := writeDOCX(t, "content")
		_, err = ing.Ingest(context.Background(), path, Metadata{})
		assert.ErrorContains(t, err, "storing chunks")
	})
}
