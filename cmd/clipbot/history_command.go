package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipbot/internal/api"
	"clipbot/internal/history"
	"clipbot/internal/timecode"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var userID int64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent clip runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			var runs []history.Run
			if userID != 0 {
				runs, err = store.RecentForUser(cmd.Context(), userID, limit)
			} else {
				runs, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, api.HistoryResponse{Runs: api.FromRuns(runs)})
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No clip runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "User", "Range", "Len", "Status", "Size", "Elapsed", "Started"},
				historyRows(runs),
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().Int64Var(&userID, "user", 0, "Only show runs for this Telegram user ID")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func historyRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		if run.FailedStage != "" {
			status += " (" + run.FailedStage + ")"
		}
		size := "-"
		if run.SizeBytes > 0 {
			size = humanBytes(run.SizeBytes)
		}
		elapsed := "-"
		if run.Elapsed > 0 {
			elapsed = run.Elapsed.Round(100 * time.Millisecond).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			strconv.FormatInt(run.UserID, 10),
			timecode.Format(run.StartSeconds) + "-" + timecode.Format(run.EndSeconds),
			strconv.Itoa(run.Length()) + "s",
			status,
			size,
			elapsed,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
