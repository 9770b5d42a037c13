// Package app provides application initialization and dependency wiring.
//
// App is the container that owns the database pool and the component graph:
// embedder, knowledge store, chat log, ingest pipeline, model dispatcher, and
// the chat orchestrator.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragchat/ragchat/db"
	"github.com/ragchat/ragchat/internal/chat"
	"github.com/ragchat/ragchat/internal/chatlog"
	"github.com/ragchat/ragchat/internal/config"
	"github.com/ragchat/ragchat/internal/document"
	"github.com/ragchat/ragchat/internal/knowledge"
	"github.com/ragchat/ragchat/internal/llm"
	"github.com/ragchat/ragchat/internal/log"
)

// dbConnectTimeout caps the initial connection check.
const dbConnectTimeout = 10 * time.Second

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	DBPool       *pgxpool.Pool
	Knowledge    *knowledge.Store
	ChatLog      *chatlog.Store
	Ingestor     *document.Ingestor
	Dispatcher   *llm.Dispatcher
	Orchestrator *chat.Orchestrator
}

// Setup creates and initializes the application. Migrations run before any
// store is constructed. Call Close() to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := providePool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	embedder, err := knowledge.NewGeminiEmbedder(cfg.GoogleAPIKey, cfg.EmbedderModel)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	a.Knowledge, err = knowledge.NewStore(pool, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}

	a.ChatLog, err = chatlog.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating chat log store: %w", err)
	}

	a.Ingestor, err = document.NewIngestor(a.Knowledge, cfg.ChunkSize, cfg.ChunkOverlap, logger)
	if err != nil {
		return nil, fmt.Errorf("creating ingestor: %w", err)
	}

	a.Dispatcher = llm.NewDispatcher(cfg.FreeModelSet(), llm.Keys{
		Google:     cfg.GoogleAPIKey,
		OpenAI:     cfg.OpenAIAPIKey,
		OpenRouter: cfg.OpenRouterAPIKey,
	}, cfg.ProviderTimeout, logger)

	a.Orchestrator, err = chat.NewOrchestrator(a.ChatLog, a.Knowledge, a.Dispatcher,
		cfg.DefaultModel, cfg.TopK, logger)
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	return a, nil
}

// providePool opens the pgx pool and verifies connectivity.
func providePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// Close releases all resources.
func (a *App) Close() {
	if a.DBPool != nil {
		a.DBPool.Close()
		if a.Logger != nil {
			a.Logger.Debug("database pool closed")
		}
	}
}
