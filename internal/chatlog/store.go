// Package chatlog persists the per-session conversation log. Every chat
// turn is appended, including turns whose model call failed, so the history
// a session sees always matches what was returned to the client.
package chatlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Turn status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry is one logged chat turn.
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	UserQuery  string    `json:"user_query"`
	AIResponse string    `json:"ai_response"`
	Model      string    `json:"model"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store manages chat log persistence.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a chat log Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Append records one chat turn. Status defaults to ok when unset.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	status := e.Status
	if status == "" {
		status = StatusOK
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_logs (session_id, user_query, ai_response, model, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.SessionID, e.UserQuery, e.AIResponse, e.Model, status,
	)
	if err != nil {
		return fmt.Errorf("appending chat log: %w", err)
	}
	return nil
}

// History returns all turns for a session in chronological order.
func (s *Store) History(ctx context.Context, sessionID string) ([]Entry, error) {
	if sessionID == "" {
		return []Entry{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, user_query, ai_response, model, status, created_at
		 FROM chat_logs
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserQuery, &e.AIResponse,
			&e.Model, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}
	return entries, nil
}
