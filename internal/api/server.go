// Package api provides the HTTP surface of the retrieval-augmented chat
// backend.
//
// Endpoints:
//
//	POST /upload                      → save and ingest a document
//	POST /chat                        → run one chat turn
//	GET  /api/sessions/{id}/messages  → session history
//	GET  /api/models                  → routable models
//	GET  /health, GET /ready          → probes
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: logging, recovery, per-IP rate limiting
//   - upload.go: document upload endpoint
//   - chat.go: chat endpoint
//   - session.go: session history endpoint
//   - models.go: model listing endpoint
//   - health.go: probes
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragchat/ragchat/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 30 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	// Uploads can be large, so this is generous.
	ReadTimeout = 2 * time.Minute

	// WriteTimeout is the maximum duration for writing the response. Chat
	// turns block on the upstream model call.
	WriteTimeout = 3 * time.Minute

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second

	// rate limiting defaults, per client IP
	defaultRateRPS   = 5
	defaultRateBurst = 10
)

// Server is the HTTP server for the chat backend.
type Server struct {
	mux     *http.ServeMux
	logger  log.Logger
	limiter *rateLimiter

	health  *HealthHandler
	upload  *UploadHandler
	chat    *ChatHandler
	session *SessionHandler
	models  *ModelsHandler
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(pool *pgxpool.Pool, ingestor Ingestor, orchestrator Chatter,
	history HistoryReader, uploadDir, defaultModel string, freeModels []string,
	logger log.Logger) *Server {

	mux := http.NewServeMux()
	s := &Server{
		mux:     mux,
		logger:  logger,
		limiter: newRateLimiter(defaultRateRPS, defaultRateBurst),
		health:  NewHealthHandler(pool, logger),
		upload:  NewUploadHandler(ingestor, uploadDir, logger),
		chat:    NewChatHandler(orchestrator, logger),
		session: NewSessionHandler(history, logger),
		models:  NewModelsHandler(defaultModel, freeModels),
	}

	s.health.RegisterRoutes(mux)
	s.upload.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.models.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → rate limit → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware, loggingMiddleware, s.limiter.middleware)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
