package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragchat/ragchat/db"
	"github.com/ragchat/ragchat/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies all pending schema migrations and exits. The serve command
also migrates on startup; this command exists for deploy pipelines that
migrate before rolling instances.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	fmt.Println("migrations applied")
	return nil
}
