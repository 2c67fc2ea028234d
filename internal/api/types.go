package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// HealthResponse answers the unauthenticated liveness probe.
type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptimeS"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SessionCounts reports live dialogue sessions.
type SessionCounts struct {
	Active      int `json:"active"`
	Processing  int `json:"processing"`
	ActiveLanes int `json:"activeLanes"`
}

// HistorySummary aggregates recorded clip runs.
type HistorySummary struct {
	Total       int   `json:"total"`
	Running     int   `json:"running"`
	Succeeded   int   `json:"succeeded"`
	Failed      int   `json:"failed"`
	Interrupted int   `json:"interrupted"`
	Bytes       int64 `json:"bytes"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	BotUsername  string             `json:"botUsername,omitempty"`
	StartedAt    string             `json:"startedAt,omitempty"`
	UptimeS      int64              `json:"uptimeS"`
	PollRestarts int                `json:"pollRestarts"`
	LockFilePath string             `json:"lockFilePath"`
	HistoryPath  string             `json:"historyPath"`
	LogPath      string             `json:"logPath,omitempty"`
	Sessions     SessionCounts      `json:"sessions"`
	Staging      StagingUsage       `json:"staging"`
	History      HistorySummary     `json:"history"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// StagingUsage summarizes the per-run workspaces currently on disk.
type StagingUsage struct {
	Workspaces int   `json:"workspaces"`
	Bytes      int64 `json:"bytes"`
}

// ClipRun describes one recorded pipeline run.
type ClipRun struct {
	ID            string `json:"id"`
	UserID        int64  `json:"userId"`
	SourceURL     string `json:"sourceUrl"`
	Title         string `json:"title,omitempty"`
	Start         string `json:"start"`
	End           string `json:"end"`
	LengthSeconds int    `json:"lengthSeconds"`
	FrameRate     int    `json:"frameRate"`
	Width         int    `json:"width"`
	PaletteSize   int    `json:"paletteSize"`
	Status        string `json:"status"`
	FailureKind   string `json:"failureKind,omitempty"`
	FailedStage   string `json:"failedStage,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	SizeBytes     int64  `json:"sizeBytes"`
	ElapsedMS     int64  `json:"elapsedMs"`
	CreatedAt     string `json:"createdAt,omitempty"`
	FinishedAt    string `json:"finishedAt,omitempty"`
}

// HistoryResponse wraps a page of clip runs.
type HistoryResponse struct {
	Runs []ClipRun `json:"runs"`
}
