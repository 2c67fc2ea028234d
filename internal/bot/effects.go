package bot

import (
	"context"
	"time"

	"clipbot/internal/chat"
	"clipbot/internal/dialog"
	"clipbot/internal/logging"
	"clipbot/internal/messages"
	"clipbot/internal/session"
)

// cleanupTimeout bounds bookkeeping calls made after the caller's context ended.
const cleanupTimeout = 10 * time.Second

type effectInput struct {
	printer messages.Printer
	// reply is the user's message that answered a prompt.
	reply chat.MessageRef
}

// perform executes the effects of a committed transition in order. Message
// retirement is best effort; everything else is logged on failure and never
// rolls back the transition.
func (b *Bot) perform(ctx context.Context, sess session.Session, res dialog.Result, in effectInput) {
	var retired []chat.MessageRef
	for _, effect := range res.Effects {
		switch effect {
		case dialog.EffectRetirePrompt:
			retired = append(retired, res.RetiredPrompt)
		case dialog.EffectRetireReply:
			retired = append(retired, in.reply)
		case dialog.EffectConfirm:
			confirm, err := b.send(ctx, sess.ChatID, in.printer.Text(confirmationKey(res.Confirmed)), nil)
			if err == nil {
				retired = append(retired, confirm)
			}
		case dialog.EffectRefreshPreview:
			b.edit(ctx, "refresh_preview", b.transport.EditControls(ctx, sess.Preview, rangeControls(in.printer, sess)))
		case dialog.EffectShowSettings:
			b.edit(ctx, "show_settings", b.transport.EditCaption(ctx, sess.Preview,
				settingsCaption(in.printer, sess.Settings), settingsControls(in.printer, sess)))
		case dialog.EffectRestorePreview:
			b.edit(ctx, "restore_preview", b.transport.EditCaption(ctx, sess.Preview,
				previewCaption(in.printer, sess), rangeControls(in.printer, sess)))
		case dialog.EffectRetirePreview:
			retired = append(retired, sess.Preview)
		case dialog.EffectDestroy:
			b.sessions.Delete(sess.UserID)
			b.userLogger(ctx).Info("session closed",
				logging.String(logging.FieldEventType, "session_closed"),
				logging.String("from", res.From.String()),
			)
		case dialog.EffectRun:
			b.launch(ctx, sess, in.printer)
		}
	}

	// A confirmation stays readable for a moment together with the prompt
	// and reply it answers.
	delay := time.Duration(b.cfg.Sessions.ConfirmationDelay) * time.Millisecond
	if res.Has(dialog.EffectConfirm) && delay > 0 {
		b.retireLater(ctx, retired, delay)
		return
	}
	for _, ref := range retired {
		b.retire(ctx, ref, "dialog")
	}
}

func (b *Bot) retireLater(ctx context.Context, refs []chat.MessageRef, delay time.Duration) {
	if len(refs) == 0 {
		return
	}
	b.background.Add(1)
	go func() {
		defer b.background.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		for _, ref := range refs {
			b.retire(cleanupCtx, ref, "dialog")
		}
	}()
}

// retire deletes a message the dialogue no longer needs. Failures are logged
// and swallowed: a leftover message never changes the dialogue outcome.
func (b *Bot) retire(ctx context.Context, ref chat.MessageRef, kind string) {
	if ref.IsZero() {
		return
	}
	if err := b.transport.DeleteMessage(ctx, ref); err != nil {
		logging.WarnWithContext(b.userLogger(ctx), "could not retire message", "message_retire_failed",
			logging.Error(err),
			logging.String("message_kind", kind),
			logging.Int("message_id", ref.MessageID),
			logging.String(logging.FieldErrorHint, "message may already be deleted or older than 48h"),
			logging.String(logging.FieldImpact, "stale message left in chat"),
		)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, controls chat.Keyboard) (chat.MessageRef, error) {
	ref, err := b.transport.SendText(ctx, chatID, text, controls)
	if err != nil {
		logging.WarnWithContext(b.userLogger(ctx), "could not send message", "message_send_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check telegram connectivity"),
			logging.String(logging.FieldImpact, "user did not receive a message"),
		)
	}
	return ref, err
}

// notify sends text without keeping a handle to it.
func (b *Bot) notify(ctx context.Context, chatID int64, text string) {
	_, _ = b.send(ctx, chatID, text, nil)
}

func (b *Bot) edit(ctx context.Context, operation string, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(b.userLogger(ctx), "could not update preview", "preview_edit_failed",
		logging.Error(err),
		logging.String("operation", operation),
		logging.String(logging.FieldErrorHint, "preview may have been deleted by the user"),
		logging.String(logging.FieldImpact, "preview shows stale controls"),
	)
}

func (b *Bot) acknowledge(ctx context.Context, callbackID, text string, alert bool) {
	if err := b.transport.AcknowledgeCallback(ctx, callbackID, text, alert); err != nil {
		logging.WarnWithContext(b.userLogger(ctx), "could not acknowledge callback", "callback_ack_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "button spinner stays until telegram times out"),
		)
	}
}
