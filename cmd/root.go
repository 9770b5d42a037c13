// Package cmd implements the ragchat command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "ragchat - retrieval-augmented chat backend",
	Long: `ragchat serves a retrieval-augmented chat API.

Documents uploaded to /upload are chunked, embedded, and stored in
PostgreSQL with pgvector. Each /chat turn retrieves the most relevant
chunks, replays the session history, and dispatches to the model provider
selected for the requested model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Running without a subcommand starts the server.
		return runServe(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
