package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipbot/internal/deps"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configuration and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Configuration", colorize))
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			if err := cfg.RequireToken(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Bot token", statusError, "not configured", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Bot token", statusOK, "configured", colorize))
			}
			gate := "disabled"
			if channel := strings.TrimSpace(cfg.Telegram.SubscriptionChannel); channel != "" {
				gate = channel
			}
			fmt.Fprintln(out, renderStatusLine("Subscription gate", statusInfo, gate, colorize))
			fmt.Fprintln(out, renderStatusLine("Max duration", statusInfo, fmt.Sprintf("%ds", cfg.Clip.MaxDuration), colorize))
			fmt.Fprintln(out, renderStatusLine("Local transcode", statusInfo, yesNo(cfg.Encode.LocalTranscode), colorize))
			api := "disabled"
			if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
				api = bind
			}
			fmt.Fprintln(out, renderStatusLine("Status API", statusInfo, api, colorize))
			fmt.Fprintln(out)

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state, status.Description})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "State", "Purpose"}, rows, nil))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				names := make([]string, len(missing))
				for i, m := range missing {
					names[i] = m.Name
				}
				return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}
}
