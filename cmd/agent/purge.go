package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notify_agent/internal/config"
)

var purgeDays int

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete notification records older than the retention cutoff",
	Long: `Deletes notification events and sent-update records strictly older
than the cutoff. The idempotency ledger is kept.`,
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

		if err := store.PurgeOlderThan(context.Background(), purgeDays); err != nil {
			return fmt.Errorf("purge old records: %w", err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s purged records older than %d days\n", green("OK:"), purgeDays)
		return nil
	},
}

func init() {
	purgeCmd.Flags().IntVar(&purgeDays, "days", 30, "Retention period in days")
	rootCmd.AddCommand(purgeCmd)
}
