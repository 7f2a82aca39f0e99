package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notify_agent/internal/config"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Show notification memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s\n", cyan("=== Notification Memory ==="))
		fmt.Printf("Total notifications:      %d\n", stats.TotalEvents)
		fmt.Printf("Total individual updates: %d\n", stats.TotalSentUpdates)
		fmt.Printf("Last 7 days:              %d\n", stats.EventsLast7Days)

		if len(stats.EventsByTopic) > 0 {
			fmt.Println("\nBy topic:")
			topics := make([]string, 0, len(stats.EventsByTopic))
			for t := range stats.EventsByTopic {
				topics = append(topics, t)
			}
			sort.Strings(topics)
			for _, t := range topics {
				fmt.Printf("  %-40s %d\n", t, stats.EventsByTopic[t])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(memoryCmd)
}
