package document

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ragchat/ragchat/internal/knowledge"
)

// ChunkAdder stores embedded chunks. Satisfied by *knowledge.Store.
type ChunkAdder interface {
	Add(ctx context.Context, chunks []knowledge.Chunk) error
}

// Metadata is the provenance attached to every chunk of an upload.
type Metadata struct {
	FileName  string
	UserID    string
	SessionID string
}

// Ingestor turns an uploaded file into stored, embedded chunks.
type Ingestor struct {
	store        ChunkAdder
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(store ChunkAdder, chunkSize, chunkOverlap int, logger *slog.Logger) (*Ingestor, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}, nil
}

// Ingest loads the file at path, splits it, and stores the chunks. Returns
// the number of chunks stored. The caller owns the file; Ingest never
// deletes it.
func (i *Ingestor) Ingest(ctx context.Context, path string, meta Metadata) (int, error) {
	sections, err := Load(path)
	if err != nil {
		return 0, err
	}

	source := meta.FileName
	if source == "" {
		source = filepath.Base(path)
	}

	var chunks []knowledge.Chunk
	for _, section := range sections {
		for _, text := range Split(section.Text, i.chunkSize, i.chunkOverlap) {
			chunks = append(chunks, knowledge.Chunk{
				Content:   text,
				Source:    source,
				UserID:    meta.UserID,
				SessionID: meta.SessionID,
			})
		}
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no text extracted from %s", source)
	}

	if err := i.store.Add(ctx, chunks); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}

	i.logger.Info("document ingested",
		"source", source,
		"sections", len(sections),
		"chunks", len(chunks))
	return len(chunks), nil
}
