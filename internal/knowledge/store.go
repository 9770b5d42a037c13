package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// embedTimeout caps the embedding call made on behalf of a store operation.
const embedTimeout = 30 * time.Second

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Chunk is a piece of document text with its provenance metadata.
type Chunk struct {
	Content   string
	Source    string
	UserID    string
	SessionID string
}

// Result is a retrieved chunk with its originating document.
type Result struct {
	Content string
	Source  string
}

// Store manages document chunks backed by PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool     *pgxpool.Pool
	embedder Embedder
	logger   *slog.Logger
}

// NewStore creates a knowledge Store.
func NewStore(pool *pgxpool.Pool, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger}, nil
}

// Add embeds the chunks and inserts them in a single transaction, so a
// partially ingested document never becomes retrievable.
func (s *Store) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		if c.Content == "" {
			return fmt.Errorf("chunk %d has empty content", i)
		}
		texts[i] = c.Content
	}

	// Embed outside the transaction so no DB connection is held during the
	// remote call.
	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	vecs, err := s.embedder.Embed(embedCtx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	for i, c := range chunks {
		if err := insertChunk(ctx, tx, c, pgvector.NewVector(vecs[i])); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunk transaction: %w", err)
	}

	s.logger.Debug("stored document chunks", "count", len(chunks), "source", chunks[0].Source)
	return nil
}

func insertChunk(ctx context.Context, q querier, c Chunk, vec pgvector.Vector) error {
	userID := c.UserID
	if userID == "" {
		userID = "unknown"
	}
	sessionID := c.SessionID
	if sessionID == "" {
		sessionID = "unknown"
	}

	_, err := q.Exec(ctx,
		`INSERT INTO document_chunks (content, embedding, source, user_id, session_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.Content, vec, c.Source, userID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// Retrieve returns up to topK chunks nearest to the query by cosine distance.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]Result, error) {
	if query == "" {
		return []Result{}, nil
	}
	if topK <= 0 {
		topK = 2
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	vecs, err := s.embedder.Embed(embedCtx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vec := pgvector.NewVector(vecs[0])

	rows, err := s.pool.Query(ctx,
		`SELECT content, source
		 FROM document_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Content, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return results, nil
}
