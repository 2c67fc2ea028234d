package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipbot/internal/daemon"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sent, message, err := daemon.TestNotification(cmd.Context(), cfg)
			if err != nil {
				if message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), message)
				}
				return err
			}
			switch {
			case message != "":
				fmt.Fprintln(cmd.OutOrStdout(), message)
			case sent:
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
			}
			return nil
		},
	}
}
