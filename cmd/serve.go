package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ragchat/ragchat/internal/api"
	"github.com/ragchat/ragchat/internal/app"
	"github.com/ragchat/ragchat/internal/config"
	"github.com/ragchat/ragchat/internal/log"
)

var (
	serveAddr     string
	serveJSONLogs bool
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveJSONLogs, "json-logs", false, "emit logs as JSON")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := log.New(log.Config{Level: log.ParseLevel(serveLogLevel), JSON: serveJSONLogs})
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting ragchat", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	server := api.NewServer(a.DBPool, a.Ingestor, a.Orchestrator, a.ChatLog,
		cfg.UploadDir, cfg.DefaultModel, cfg.FreeModels, logger)

	addr := serveAddr
	if addr == "" {
		addr = cfg.HTTPAddr
	}
	return server.Run(ctx, addr)
}
