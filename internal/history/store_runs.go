package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when finishing a run that was never begun.
var ErrRunNotFound = errors.New("clip run not found")

const runColumns = "id, user_id, source_url, title, start_seconds, end_seconds, frame_rate, width, palette_size, status, failure_kind, failed_stage, error_message, size_bytes, elapsed_ms, created_at, finished_at"

// Begin records a run entering the pipeline.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("clip run id is required")
	}
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO clip_runs (
            id, user_id, source_url, title, start_seconds, end_seconds,
            frame_rate, width, palette_size, status, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.UserID,
		run.SourceURL,
		nullableString(run.Title),
		run.StartSeconds,
		run.EndSeconds,
		run.FrameRate,
		run.Width,
		run.PaletteSize,
		StatusRunning,
		formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("insert clip run: %w", err)
	}
	return nil
}

// Finish stores the terminal state of a run.
func (s *Store) Finish(ctx context.Context, id string, done Completion) error {
	status := done.Status
	if status == "" {
		status = StatusSucceeded
	}
	res, err := s.exec(ctx,
		`UPDATE clip_runs
            SET status = ?, failure_kind = ?, failed_stage = ?, error_message = ?,
                size_bytes = ?, elapsed_ms = ?, finished_at = ?
          WHERE id = ?`,
		status,
		nullableString(done.FailureKind),
		nullableString(done.FailedStage),
		nullableString(done.ErrorMessage),
		done.SizeBytes,
		done.Elapsed.Milliseconds(),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish clip run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish clip run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Get fetches one run, returning nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM clip_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip run: %w", err)
	}
	return run, nil
}

// Recent lists the newest runs first. A non-positive limit returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM clip_runs ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// RecentForUser lists one user's newest runs first.
func (s *Store) RecentForUser(ctx context.Context, userID int64, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM clip_runs WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clip runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		status       string
		title        sql.NullString
		failureKind  sql.NullString
		failedStage  sql.NullString
		errorMessage sql.NullString
		elapsedMS    int64
		createdRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.UserID,
		&run.SourceURL,
		&title,
		&run.StartSeconds,
		&run.EndSeconds,
		&run.FrameRate,
		&run.Width,
		&run.PaletteSize,
		&status,
		&failureKind,
		&failedStage,
		&errorMessage,
		&run.SizeBytes,
		&elapsedMS,
		&createdRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.Title = title.String
	run.FailureKind = failureKind.String
	run.FailedStage = failedStage.String
	run.ErrorMessage = errorMessage.String
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	run.CreatedAt = parseTime(createdRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return &run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
