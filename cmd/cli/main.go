package main

import (
	"fmt"
	"os"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/config"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "collegedost",
	Short: "CollegeDost CLI - operational tools for the backend",
	Long: `CollegeDost CLI provides maintenance commands that run against the
database directly: rescoring the trending feed, backfilling post slugs,
and similar one-off jobs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if err := database.Initialize(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
		logger.Close()
	},
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
	rootCmd.AddCommand(backfillSlugsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
