package history

import "time"

// Status is the lifecycle state of a recorded clip run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Run is one pipeline execution for one user's committed selection.
type Run struct {
	ID           string
	UserID       int64
	SourceURL    string
	Title        string
	StartSeconds int
	EndSeconds   int
	FrameRate    int
	Width        int
	PaletteSize  int
	Status       Status
	FailureKind  string
	FailedStage  string
	ErrorMessage string
	SizeBytes    int64
	Elapsed      time.Duration
	CreatedAt    time.Time
	FinishedAt   time.Time
}

// Length returns the selected clip length in seconds.
func (r Run) Length() int {
	return r.EndSeconds - r.StartSeconds
}

// Completion carries the terminal facts recorded when a run ends.
type Completion struct {
	Status       Status
	FailureKind  string
	FailedStage  string
	ErrorMessage string
	SizeBytes    int64
	Elapsed      time.Duration
}

// Summary aggregates run counts for status output.
type Summary struct {
	Total       int
	Running     int
	Succeeded   int
	Failed      int
	Interrupted int
	Bytes       int64
}
