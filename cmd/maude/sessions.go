// Maude - governed chat client for the governor daemon
// License: MIT

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Manage governor sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newSessionsListCommand(),
		newSessionsNewCommand(),
		newSessionsDeleteCommand(),
	)

	return cmd
}

func newSessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List governor sessions",
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

			sessions, err := gov.ListSessions(ctx)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions.")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %s", s.ID, s.Title)
				if s.UpdatedAt != "" {
					fmt.Printf("  (updated %s)", s.UpdatedAt)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newSessionsNewCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a governor session",
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

			created, err := gov.CreateSession(ctx, title)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			fmt.Printf("Created session: %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "Maude session", "Session title")
	return cmd
}

func newSessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a governor session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			gov := newGovernorClient(settings)
			defer gov.Close()

			ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
			defer cancel()

			ok, err := gov.DeleteSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			if !ok {
				return fmt.Errorf("session not deleted: %s", args[0])
			}
			fmt.Printf("Deleted session: %s\n", args[0])
			return nil
		},
	}
}
