package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notify_agent/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("%s\n", cyan("=== Agent Configuration ==="))
		key := red("missing")
		if cfg.AnthropicAPIKey != "" {
			key = green("set")
		}
		fmt.Printf("API key:            %s\n", key)
		fmt.Printf("Model:              %s\n", cfg.Model)
		fmt.Printf("Database:           %s\n", cfg.DatabasePath)
		fmt.Printf("Max search results: %d\n", cfg.MaxSearchResults)
		fmt.Printf("Dedup window:       %s\n", cfg.DedupWindow)
		fmt.Printf("Recipient:          %s\n", cfg.Recipient)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
