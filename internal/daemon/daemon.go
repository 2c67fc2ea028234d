package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipbot/internal/api"
	"clipbot/internal/bot"
	"clipbot/internal/chat"
	"clipbot/internal/config"
	"clipbot/internal/deps"
	"clipbot/internal/history"
	"clipbot/internal/logging"
	"clipbot/internal/notifications"
	"clipbot/internal/staging"
)

const (
	defaultSweepInterval = time.Minute
	minStaleWorkspaceAge = time.Hour
)

// Dispatcher consumes updates and owns the live sessions.
type Dispatcher interface {
	Handle(ctx context.Context, update chat.Update)
	ExpireIdle(ctx context.Context) int
	Status() bot.Status
	Wait()
}

// Options carries the collaborators the daemon coordinates.
type Options struct {
	Poller      chat.Poller
	Bot         Dispatcher
	History     *history.Store
	Notifier    notifications.Service
	BotUsername string
	LogPath     string
}

// Daemon coordinates polling, maintenance, and the status API, and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	poller   chat.Poller
	bot      Dispatcher
	history  *history.Store
	notifier notifications.Service
	username string
	logPath  string

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu       sync.Mutex
	running  atomic.Bool
	restarts atomic.Int64
	started  atomic.Int64
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	now      func() time.Time
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || opts.Poller == nil || opts.Bot == nil {
		return nil, errors.New("daemon requires config, poller, and bot")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		poller:   opts.Poller,
		bot:      opts.Bot,
		history:  opts.History,
		notifier: notifier,
		username: opts.BotUsername,
		logPath:  opts.LogPath,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		now:      time.Now,
	}
	router := api.NewRouter(api.RouterConfig{
		Backend:   d,
		Token:     cfg.Paths.APIToken,
		StartTime: d.now(),
		Logger:    logger,
	})
	d.api = newAPIServer(cfg.Paths.APIBind, router, logger)
	return d, nil
}

// Start acquires the daemon lock and launches polling, maintenance, and the
// status API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipbot daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.markInterrupted(runCtx)
	// Nothing is running yet, so every workspace left on disk is orphaned.
	d.cleanStaging(0)
	d.cleanupLogs()

	d.cancel = cancel
	d.started.Store(d.now().UnixNano())
	d.running.Store(true)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.supervise(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		d.maintain(runCtx)
	}()

	d.logger.Info("clipbot daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("bot", d.username),
		logging.String("lock", d.lockPath),
	)
	if err := d.notifier.Publish(runCtx, notifications.EventBotStarted, notifications.Payload{"username": d.username}); err != nil {
		logging.WarnWithContext(d.logger, "startup notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator not alerted of startup"),
		)
	}
	return nil
}

// Stop cancels polling, waits for in-flight updates and clip runs, and
// releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.bot.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
		)
	}
	d.running.Store(false)
	d.logger.Info("clipbot daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddress returns the status API listen address, empty when disabled or
// not started.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// supervise keeps polling alive. A poll failure is logged, alerted, and
// retried after the configured backoff until ctx ends.
func (d *Daemon) supervise(ctx context.Context) {
	backoff := config.Seconds(d.cfg.Telegram.RestartBackoff)
	handle := func(update chat.Update) {
		d.bot.Handle(ctx, update)
	}
	for {
		err := d.poller.Poll(ctx, handle)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("poller returned without error")
		}
		attempt := d.restarts.Add(1)
		logging.ErrorWithContext(d.logger, "chat polling failed; restarting", "poll_restart",
			logging.Error(err),
			logging.Int64("attempt", attempt),
			logging.Duration("backoff", backoff),
			logging.String(logging.FieldErrorHint, "check network access and the bot token"),
			logging.String(logging.FieldImpact, "updates are delayed until polling resumes"),
		)
		if pubErr := d.notifier.Publish(ctx, notifications.EventBotRestarted, notifications.Payload{
			"attempt": int(attempt),
			"error":   err.Error(),
		}); pubErr != nil {
			d.logger.Debug("restart notification failed", logging.Error(pubErr))
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (d *Daemon) maintain(ctx context.Context) {
	interval := config.Seconds(d.cfg.Sessions.SweepInterval)
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

// sweep runs one maintenance pass.
func (d *Daemon) sweep(ctx context.Context) {
	d.bot.ExpireIdle(ctx)

	if age, ok := d.staleWorkspaceAge(); ok {
		d.cleanStaging(age)
	}

	if d.history != nil && d.cfg.Clip.HistoryRetentionDays > 0 {
		cutoff := d.now().AddDate(0, 0, -d.cfg.Clip.HistoryRetentionDays)
		removed, err := d.history.Prune(ctx, cutoff)
		if err != nil {
			logging.WarnWithContext(d.logger, "history prune failed", "history_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "old runs kept until the next sweep"),
			)
		} else if removed > 0 {
			d.logger.Info("history pruned",
				logging.String(logging.FieldEventType, "history_pruned"),
				logging.Int64("count", removed),
			)
		}
	}
}

// staleWorkspaceAge is twice the pipeline ceiling so a live run is never
// swept. Without a ceiling a run may last indefinitely, and periodic sweeps
// are skipped; startup still clears orphans.
func (d *Daemon) staleWorkspaceAge() (time.Duration, bool) {
	if d.cfg.Timeouts.Pipeline <= 0 {
		return 0, false
	}
	return max(2*config.Seconds(d.cfg.Timeouts.Pipeline), minStaleWorkspaceAge), true
}

func (d *Daemon) cleanStaging(maxAge time.Duration) {
	result := staging.CleanStale(d.cfg.Paths.StagingDir, maxAge, d.logger)
	if len(result.Removed) > 0 {
		d.logger.Info("stale workspaces removed",
			logging.String(logging.FieldEventType, "staging_cleaned"),
			logging.Int("count", len(result.Removed)),
		)
	}
}

func (d *Daemon) markInterrupted(ctx context.Context) {
	if d.history == nil {
		return
	}
	count, err := d.history.MarkInterrupted(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "failed to close interrupted runs", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale runs stay marked running"),
		)
		return
	}
	if count > 0 {
		d.logger.Info("runs from previous process marked interrupted",
			logging.String(logging.FieldEventType, "runs_interrupted"),
			logging.Int64("count", count),
		)
	}
}

func (d *Daemon) cleanupLogs() {
	if strings.TrimSpace(d.cfg.Paths.LogDir) == "" {
		return
	}
	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: logging.LogFilePrefix + "*.log",
		Exclude: []string{d.logPath},
	})
}

// Status implements api.Backend.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	live := d.bot.Status()
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		BotUsername:  d.username,
		PollRestarts: int(d.restarts.Load()),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		Sessions: api.SessionCounts{
			Active:      live.Sessions.Active,
			Processing:  live.Sessions.Processing,
			ActiveLanes: live.ActiveLanes,
		},
		Dependencies: api.FromDependencies(deps.CheckBinaries(deps.Requirements(d.cfg))),
	}
	if workspaces, err := staging.ListWorkspaces(d.cfg.Paths.StagingDir); err == nil {
		status.Staging = api.FromWorkspaces(workspaces)
	}
	if nanos := d.started.Load(); status.Running && nanos != 0 {
		started := time.Unix(0, nanos)
		status.StartedAt = started.UTC().Format(time.RFC3339)
		status.UptimeS = int64(d.now().Sub(started).Seconds())
	}
	if d.history != nil {
		status.HistoryPath = d.history.Path()
		summary, err := d.history.Summarize(ctx)
		if err != nil {
			d.logger.Debug("history summary unavailable", logging.Error(err))
		} else {
			status.History = api.FromSummary(summary)
		}
	}
	return status
}

// History implements api.Backend.
func (d *Daemon) History(ctx context.Context, query api.HistoryQuery) ([]history.Run, error) {
	if d.history == nil {
		return nil, errors.New("history store unavailable")
	}
	if query.UserID != 0 {
		return d.history.RecentForUser(ctx, query.UserID, query.Limit)
	}
	return d.history.Recent(ctx, query.Limit)
}

// TestNotification sends a test alert using the current configuration.
func TestNotification(ctx context.Context, cfg *config.Config) (bool, string, error) {
	if cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(cfg)
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
