package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"clipbot/internal/chat"
	"clipbot/internal/config"
	"clipbot/internal/dialog"
	"clipbot/internal/logging"
	"clipbot/internal/messages"
	"clipbot/internal/services"
	"clipbot/internal/session"
)

func (b *Bot) handleMessage(ctx context.Context, msg chat.Message) {
	userID := msg.From.ID
	chatID := msg.Ref.ChatID
	ctx = services.WithUserID(ctx, userID)
	printer := b.printerFor(msg.From)

	if !b.gate.Allowed(ctx, userID) {
		b.notify(ctx, chatID, printer.Text(messages.SubscribePrompt, "channel", b.gate.Channel()))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if command, ok := parseCommand(text); ok {
		b.handleCommand(ctx, msg, command, printer)
		return
	}

	sess, err := b.sessions.Get(userID)
	if err != nil {
		b.openSource(ctx, msg, printer)
		return
	}

	switch state := dialog.StateOf(&sess); {
	case state == dialog.StateProcessing:
		b.notify(ctx, chatID, printer.Text(messages.ErrorBusy))
	case state.Awaiting():
		b.acceptReply(ctx, msg, sess, printer)
	default:
		if _, ok := sourceURL(text, b.cfg.Clip.AllowedHosts); !ok {
			b.notify(ctx, chatID, printer.Text(messages.ErrorInvalidURL))
			return
		}
		// A new link replaces the video being edited.
		if !b.dropSession(ctx, userID) {
			b.notify(ctx, chatID, printer.Text(messages.ErrorBusy))
			return
		}
		b.openSource(ctx, msg, printer)
	}
}

// parseCommand returns the bot command in text without its leading slash or
// @botname suffix.
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word), word != ""
}

func (b *Bot) handleCommand(ctx context.Context, msg chat.Message, command string, printer messages.Printer) {
	chatID := msg.Ref.ChatID
	switch command {
	case "start":
		b.notify(ctx, chatID, printer.Text(messages.StartWelcome, "max_duration", strconv.Itoa(b.cfg.Clip.MaxDuration)))
	case "cancel":
		b.cancelCommand(ctx, msg.From.ID, chatID, printer)
	default:
		b.notify(ctx, chatID, printer.Text(messages.Help))
	}
}

func (b *Bot) cancelCommand(ctx context.Context, userID, chatID int64, printer messages.Printer) {
	var res dialog.Result
	sess, err := b.sessions.Mutate(userID, func(s *session.Session) error {
		var applyErr error
		res, applyErr = b.machine.Apply(s, dialog.Event{Kind: dialog.EventCancel})
		return applyErr
	})
	switch {
	case errors.Is(err, dialog.ErrBusy):
		b.notify(ctx, chatID, printer.Text(messages.ErrorBusy))
		return
	case err != nil:
		b.notify(ctx, chatID, printer.Text(messages.Cancelled))
		return
	}
	b.perform(ctx, sess, res, effectInput{printer: printer})
	b.notify(ctx, chatID, printer.Text(messages.Cancelled))
}

// dropSession removes a session that is not processing, retiring its
// messages. It reports false when a run owns the session.
func (b *Bot) dropSession(ctx context.Context, userID int64) bool {
	sess, err := b.sessions.Get(userID)
	if err != nil {
		return true
	}
	if sess.Processing {
		return false
	}
	b.sessions.Delete(userID)
	b.retire(ctx, sess.PendingPrompt, "prompt")
	b.retire(ctx, sess.Preview, "preview")
	return true
}

// openSource fetches metadata for the link in msg, sends the preview, and
// creates the session. Nothing is stored when any step fails.
func (b *Bot) openSource(ctx context.Context, msg chat.Message, printer messages.Printer) {
	userID := msg.From.ID
	chatID := msg.Ref.ChatID
	link, ok := sourceURL(msg.Text, b.cfg.Clip.AllowedHosts)
	if !ok {
		b.notify(ctx, chatID, printer.Text(messages.ErrorInvalidURL))
		return
	}
	logger := b.userLogger(ctx)

	status, _ := b.send(ctx, chatID, printer.Text(messages.GettingInfo), nil)
	meta, err := b.fetchMetadata(ctx, link)
	b.retire(ctx, status, "status")
	if err == nil && meta.DurationSeconds <= 0 {
		err = services.Wrap(services.ErrService, "metadata", "inspect", "source reports no duration", nil)
	}
	if err != nil {
		logging.WarnWithContext(logger, "metadata lookup failed", "metadata_failed",
			logging.Error(err),
			logging.String("url", link),
			logging.String(logging.FieldErrorHint, "check that yt-dlp can read the link"),
			logging.String(logging.FieldImpact, "no session created"),
		)
		b.notify(ctx, chatID, printer.Text(messages.ErrorGettingInfo))
		return
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = printer.Text(messages.VideoTitleDefault)
	}

	sess := session.New(userID, chatID, link, meta, b.initialLength())
	sess.Settings = b.defaultSettings()

	preview, err := b.sendPreview(ctx, sess, printer)
	if err != nil {
		logging.ErrorWithContext(logger, "preview send failed", "preview_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check telegram connectivity"),
		)
		return
	}
	sess.Preview = preview
	if _, err := b.sessions.Create(userID, sess); err != nil {
		b.retire(ctx, preview, "preview")
		logging.WarnWithContext(logger, "session already exists", "session_conflict",
			logging.Error(err),
			logging.String(logging.FieldImpact, "new preview discarded"),
		)
		return
	}
	logger.Info("session opened",
		logging.String(logging.FieldEventType, "session_opened"),
		logging.String("title", meta.Title),
		logging.Int("source_duration", meta.DurationSeconds),
		logging.Int("source_width", meta.SourceWidth),
	)
}

func (b *Bot) fetchMetadata(ctx context.Context, link string) (session.Metadata, error) {
	if timeout := config.Seconds(b.cfg.Timeouts.Metadata); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return b.source.Metadata(ctx, link)
}

// sendPreview posts the thumbnail with caption and controls, falling back to
// a text message when no thumbnail can be fetched.
func (b *Bot) sendPreview(ctx context.Context, sess session.Session, printer messages.Printer) (chat.MessageRef, error) {
	caption := previewCaption(printer, sess)
	controls := rangeControls(printer, sess)
	if sess.ThumbnailURL != "" {
		image, err := b.thumbnails.Fetch(ctx, sess.ThumbnailURL)
		if err == nil {
			ref, sendErr := b.transport.SendImage(ctx, sess.ChatID, image, caption, controls)
			if sendErr == nil {
				return ref, nil
			}
			err = sendErr
		}
		logging.WarnWithContext(b.userLogger(ctx), "thumbnail preview unavailable", "thumbnail_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "thumbnail host may be unreachable"),
			logging.String(logging.FieldImpact, "text preview sent instead"),
		)
	}
	return b.transport.SendText(ctx, sess.ChatID, caption, controls)
}

// initialLength is the opening clip length, never above the clip ceiling.
func (b *Bot) initialLength() int {
	length := b.cfg.Clip.InitialLength
	if ceiling := b.cfg.Clip.MaxDuration; ceiling > 0 && length > ceiling {
		length = ceiling
	}
	return length
}

func (b *Bot) defaultSettings() session.EncodeSettings {
	settings := session.DefaultEncodeSettings()
	for setting, value := range map[session.Setting]int{
		session.SettingFrameRate: b.cfg.Encode.FrameRate,
		session.SettingWidth:     b.cfg.Encode.Width,
		session.SettingPalette:   b.cfg.Encode.PaletteSize,
	} {
		if setting.Valid(value) {
			settings = settings.With(setting, value)
		}
	}
	return settings
}

// acceptReply applies a free-text answer to the outstanding prompt.
func (b *Bot) acceptReply(ctx context.Context, msg chat.Message, current session.Session, printer messages.Printer) {
	var res dialog.Result
	sess, err := b.sessions.Mutate(msg.From.ID, func(s *session.Session) error {
		var applyErr error
		res, applyErr = b.machine.Apply(s, dialog.Event{Kind: dialog.EventInput, Text: msg.Text})
		return applyErr
	})
	if err != nil {
		b.rejectReply(ctx, msg.Ref.ChatID, current.WaitingFor, err, printer)
		return
	}
	b.perform(ctx, sess, res, effectInput{printer: printer, reply: msg.Ref})
}

func (b *Bot) rejectReply(ctx context.Context, chatID int64, field session.WaitingFor, err error, printer messages.Printer) {
	var constraint *dialog.ConstraintError
	switch {
	case errors.As(err, &constraint):
		b.notify(ctx, chatID, printer.Text(inputErrorKey(field, constraint.Reason),
			"max_duration", strconv.Itoa(b.cfg.Clip.MaxDuration)))
	case errors.Is(err, services.ErrInputFormat):
		b.notify(ctx, chatID, printer.Text(inputErrorKey(field, "")))
	case errors.Is(err, dialog.ErrBusy):
		b.notify(ctx, chatID, printer.Text(messages.ErrorBusy))
	case errors.Is(err, services.ErrSessionNotFound):
		b.notify(ctx, chatID, printer.Text(messages.AlertSessionExpired))
	default:
		logging.WarnWithContext(b.userLogger(ctx), "reply rejected", "reply_rejected",
			logging.Error(err),
			logging.String(logging.FieldImpact, "reply ignored"),
		)
	}
}
