package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"notify_agent/internal/agent"
	"notify_agent/internal/config"
	"notify_agent/internal/notify"
	"notify_agent/internal/search"
	"notify_agent/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "agent [query]",
	Short: "LLM agent that answers queries and decides update notifications",
	Long: `Answers natural-language queries, searching the web when needed.
For update queries it consults the notification memory so the same
update is never announced twice within the dedup window.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}
		log := newLogger(cfg.LogLevel)

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		recorder := notify.New(store, nil, cfg.Recipient, cfg.DedupWindow)
		provider := search.NewDuckDuckGo(http.DefaultClient)
		a := agent.New(cfg.AnthropicAPIKey, cfg.Model, provider, recorder, cfg.MaxSearchResults, log)

		query := strings.Join(args, " ")
		answer, err := a.Run(context.Background(), query)
		if err != nil {
			return fmt.Errorf("run agent: %w", err)
		}
		fmt.Println(answer)
		return nil
	},
}

// openStore loads config, ensures the data directory exists, and opens
// the SQLite-backed notification store.
func openStore(cfg *config.Config) (*storage.SQLite, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
