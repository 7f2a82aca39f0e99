package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notify_agent/internal/config"
	"notify_agent/internal/model"
)

var recentDays int

var recentCmd = &cobra.Command{
	Use:   "recent <topic>",
	Short: "Show recent notification events for a topic",
	Args:  cobra.ExactArgs(1),
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

		topic := args[0]
		events, err := store.RecentEvents(context.Background(), topic, recentDays)
		if err != nil {
			return fmt.Errorf("get recent events: %w", err)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s\n", cyan(fmt.Sprintf("=== Notifications for %q (last %d days) ===", topic, recentDays)))

		if len(events) == 0 {
			fmt.Printf("  %s\n", gray("No recent notifications found."))
			return nil
		}

		for i, e := range events {
			fmt.Printf("%d. sent at %s to %s\n", i+1, e.SentAt.Format("2006-01-02 15:04:05"), e.Recipient)
			var updates []model.Update
			if err := json.Unmarshal([]byte(e.Payload), &updates); err == nil {
				for _, u := range updates {
					fmt.Printf("   - %s\n     %s\n", u.Title, gray(u.URL))
				}
			}
		}
		return nil
	},
}

func init() {
	recentCmd.Flags().IntVar(&recentDays, "days", 7, "How many days back to look")
	rootCmd.AddCommand(recentCmd)
}
