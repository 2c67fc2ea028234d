package api

import (
	"time"

	"clipbot/internal/deps"
	"clipbot/internal/history"
	"clipbot/internal/staging"
	"clipbot/internal/timecode"
)

// FromRun converts a history record to its API representation.
func FromRun(run history.Run) ClipRun {
	return ClipRun{
		ID:            run.ID,
		UserID:        run.UserID,
		SourceURL:     run.SourceURL,
		Title:         run.Title,
		Start:         timecode.Format(run.StartSeconds),
		End:           timecode.Format(run.EndSeconds),
		LengthSeconds: run.Length(),
		FrameRate:     run.FrameRate,
		Width:         run.Width,
		PaletteSize:   run.PaletteSize,
		Status:        string(run.Status),
		FailureKind:   run.FailureKind,
		FailedStage:   run.FailedStage,
		ErrorMessage:  run.ErrorMessage,
		SizeBytes:     run.SizeBytes,
		ElapsedMS:     run.Elapsed.Milliseconds(),
		CreatedAt:     formatTime(run.CreatedAt),
		FinishedAt:    formatTime(run.FinishedAt),
	}
}

// FromRuns converts a slice of history records, preserving order.
func FromRuns(runs []history.Run) []ClipRun {
	out := make([]ClipRun, 0, len(runs))
	for _, run := range runs {
		out = append(out, FromRun(run))
	}
	return out
}

// FromSummary converts aggregate history counts.
func FromSummary(summary history.Summary) HistorySummary {
	return HistorySummary{
		Total:       summary.Total,
		Running:     summary.Running,
		Succeeded:   summary.Succeeded,
		Failed:      summary.Failed,
		Interrupted: summary.Interrupted,
		Bytes:       summary.Bytes,
	}
}

// FromDependencies converts binary check results.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromWorkspaces totals a staging listing.
func FromWorkspaces(dirs []staging.DirInfo) StagingUsage {
	usage := StagingUsage{Workspaces: len(dirs)}
	for _, dir := range dirs {
		usage.Bytes += dir.Size
	}
	return usage
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
