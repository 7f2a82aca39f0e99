package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notify_agent/internal/config"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all notification memory",
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

		if err := store.ResetAll(context.Background()); err != nil {
			return fmt.Errorf("reset memory: %w", err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s notification memory has been reset\n", green("OK:"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
