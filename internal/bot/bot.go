package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"clipbot/internal/chat"
	"clipbot/internal/config"
	"clipbot/internal/dialog"
	"clipbot/internal/history"
	"clipbot/internal/logging"
	"clipbot/internal/messages"
	"clipbot/internal/notifications"
	"clipbot/internal/pipeline"
	"clipbot/internal/session"
)

// MetadataSource looks up a source URL before a session is created.
type MetadataSource interface {
	Metadata(ctx context.Context, url string) (session.Metadata, error)
}

// ClipRunner executes one validated clip request.
type ClipRunner interface {
	Run(ctx context.Context, job pipeline.Job, deliver pipeline.Deliverer) (pipeline.Outcome, error)
}

// RunRecorder persists the lifecycle of clip runs.
type RunRecorder interface {
	Begin(ctx context.Context, run history.Run) error
	Finish(ctx context.Context, id string, done history.Completion) error
}

// Dependencies are the collaborators a Bot drives.
type Dependencies struct {
	Transport  chat.Transport
	Sessions   *session.Store
	Source     MetadataSource
	Runner     ClipRunner
	History    RunRecorder
	Notifier   notifications.Service
	Thumbnails ThumbnailFetcher
	Gate       Gate
}

// Bot routes chat updates through the dialogue and launches clip runs.
type Bot struct {
	cfg        *config.Config
	transport  chat.Transport
	sessions   *session.Store
	source     MetadataSource
	runner     ClipRunner
	history    RunRecorder
	notifier   notifications.Service
	thumbnails ThumbnailFetcher
	gate       Gate
	machine    dialog.Machine
	logger     *slog.Logger

	lanes *lanes
	// background tracks clip runs and delayed message retirement.
	background sync.WaitGroup
	now        func() time.Time
}

// New validates dependencies and constructs a Bot. History, Notifier,
// Thumbnails, and Gate are optional.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot: config is required")
	}
	if deps.Transport == nil {
		return nil, errors.New("bot: transport is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("bot: session store is required")
	}
	if deps.Source == nil {
		return nil, errors.New("bot: metadata source is required")
	}
	if deps.Runner == nil {
		return nil, errors.New("bot: clip runner is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	if deps.Thumbnails == nil {
		deps.Thumbnails = noThumbnails{}
	}
	if deps.Gate == nil {
		deps.Gate = openGate{}
	}
	logger = logging.NewComponentLogger(logger, "bot")
	return &Bot{
		cfg:        cfg,
		transport:  deps.Transport,
		sessions:   deps.Sessions,
		source:     deps.Source,
		runner:     deps.Runner,
		history:    deps.History,
		notifier:   deps.Notifier,
		thumbnails: deps.Thumbnails,
		gate:       deps.Gate,
		machine:    dialog.Machine{Limits: dialog.Limits{MaxClipSeconds: cfg.Clip.MaxDuration}},
		logger:     logger,
		lanes:      newLanes(logger),
		now:        time.Now,
	}, nil
}

// Handle queues update on its sender's lane. Updates without a sender are dropped.
func (b *Bot) Handle(ctx context.Context, update chat.Update) {
	userID := update.UserID()
	if userID == 0 {
		return
	}
	b.lanes.submit(userID, func() {
		switch {
		case update.Message != nil:
			b.handleMessage(ctx, *update.Message)
		case update.Callback != nil:
			b.handleCallback(ctx, *update.Callback)
		}
	})
}

// Wait blocks until every queued update, clip run, and delayed cleanup has
// finished. Callers cancel the context passed to Handle first.
func (b *Bot) Wait() {
	b.lanes.wait()
	b.background.Wait()
}

// Status reports live counters for the status API.
type Status struct {
	Sessions    session.Counts
	ActiveLanes int
}

// Status returns the current session and lane counts.
func (b *Bot) Status() Status {
	return Status{Sessions: b.sessions.Counts(), ActiveLanes: b.lanes.active()}
}

// ExpireIdle drops sessions idle longer than the configured TTL and retires
// their messages. It returns the number of sessions removed.
func (b *Bot) ExpireIdle(ctx context.Context) int {
	ttl := b.cfg.IdleTTL()
	if ttl <= 0 {
		return 0
	}
	expired := b.sessions.Expire(b.now().Add(-ttl))
	for _, sess := range expired {
		b.retire(ctx, sess.PendingPrompt, "prompt")
		b.retire(ctx, sess.Preview, "preview")
		printer := messages.For("", b.cfg.Messages.DefaultLanguage)
		b.notify(ctx, sess.ChatID, printer.Text(messages.SessionIdleClosed))
	}
	if len(expired) > 0 {
		b.logger.Info("idle sessions expired",
			logging.String(logging.FieldEventType, "sessions_expired"),
			logging.Int("count", len(expired)),
			logging.Duration("idle_ttl", ttl),
		)
	}
	return len(expired)
}

// printerFor picks the catalog language for a user.
func (b *Bot) printerFor(user chat.User) messages.Printer {
	code := ""
	if b.cfg.Messages.FollowUserLanguage {
		code = user.LanguageCode
	}
	return messages.For(code, b.cfg.Messages.DefaultLanguage)
}

func (b *Bot) userLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, b.logger)
}
