// Maude - governed chat client for the governor daemon
// License: MIT

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const rpcTimeout = 10 * time.Second

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show governor status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			gov := newGovernorClient(settings)
			defer gov.Close()

			ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
			defer cancel()

			st, err := gov.Status(ctx)
			if err != nil {
				return fmt.Errorf("governor status: %w", err)
			}
			now, err := gov.Now(ctx)
			if err != nil {
				return fmt.Errorf("governor now: %w", err)
			}

			fmt.Printf("Governor status\n\n")
			fmt.Printf("Context: %s\n", st.ContextID)
			fmt.Printf("Mode: %s\n", st.Mode)
			fmt.Printf("Initialized: %v\n", st.Initialized)
			fmt.Printf("Decisions: %d\n", st.Decisions)
			fmt.Printf("Violations: %d\n", st.Violations)
			fmt.Printf("Claims: %d\n", st.Claims)
			fmt.Printf("\nNow: %s", now.Status)
			if now.Sentence != "" {
				fmt.Printf(" - %s", now.Sentence)
			}
			fmt.Println()
			return nil
		},
	}
}
