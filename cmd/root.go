package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/config"
	"github.com/abhisek/pyquest/internal/store"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pyquest",
	Short: "Learn Python by playing",
	Long: "PyQuest is a terminal game for learning Python: flip flashcards, answer quizzes, " +
		"earn points, hatch creatures and build small projects.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runStudy,
}

// Execute runs the root command. An interrupt cancels the command context;
// commands still save on the way out.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PYQUEST_DB env var)")
	rootCmd.PersistentFlags().String("remote-dsn", "", "Remote progress database DSN (overrides PYQUEST_REMOTE_DSN)")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog YAML replacing the built-in content (overrides PYQUEST_CATALOG)")

	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(flipCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(shopCmd)
	rootCmd.AddCommand(hatchCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(hintCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and builds the logger shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("remote-dsn"); v != "" {
		c.RemoteDSN = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		c.CatalogPath = v
	}
	cfg = c
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then PYQUEST_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
