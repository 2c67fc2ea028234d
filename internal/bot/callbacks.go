package bot

import (
	"context"
	"errors"
	"strconv"

	"clipbot/internal/chat"
	"clipbot/internal/dialog"
	"clipbot/internal/logging"
	"clipbot/internal/messages"
	"clipbot/internal/services"
	"clipbot/internal/session"
)

func (b *Bot) handleCallback(ctx context.Context, cb chat.Callback) {
	userID := cb.From.ID
	ctx = services.WithUserID(ctx, userID)
	printer := b.printerFor(cb.From)

	if !b.gate.Allowed(ctx, userID) {
		b.acknowledge(ctx, cb.ID, printer.Text(messages.AlertNotSubscribed, "channel", b.gate.Channel()), true)
		return
	}

	token, ok := dialog.ParseToken(cb.Data)
	var ev dialog.Event
	if ok {
		ev, ok = token.Event()
	}
	if !ok {
		b.acknowledge(ctx, cb.ID, "", false)
		return
	}

	current, err := b.sessions.Get(userID)
	if err != nil || current.Preview.MessageID != cb.Message.MessageID {
		// Buttons on a retired or replaced preview.
		b.acknowledge(ctx, cb.ID, printer.Text(messages.AlertSessionExpired), true)
		return
	}
	if current.Processing {
		b.acknowledge(ctx, cb.ID, printer.Text(messages.AlertBusy), false)
		return
	}

	if ev.Kind == dialog.EventEditField {
		prompt, err := b.send(ctx, current.ChatID, printer.Text(promptKey(ev.Field),
			"max_duration", strconv.Itoa(b.cfg.Clip.MaxDuration)), nil)
		if err != nil {
			b.acknowledge(ctx, cb.ID, "", false)
			return
		}
		ev.Prompt = prompt
	}

	var res dialog.Result
	sess, err := b.sessions.Mutate(userID, func(s *session.Session) error {
		var applyErr error
		res, applyErr = b.machine.Apply(s, ev)
		return applyErr
	})
	if err != nil {
		if ev.Kind == dialog.EventEditField {
			b.retire(ctx, ev.Prompt, "prompt")
		}
		b.rejectCallback(ctx, cb, ev, err, printer)
		return
	}

	alert := ""
	if ev.Kind == dialog.EventCancel {
		alert = printer.Text(messages.AlertCancelled)
	}
	b.acknowledge(ctx, cb.ID, alert, false)
	b.perform(ctx, sess, res, effectInput{printer: printer})
}

func (b *Bot) rejectCallback(ctx context.Context, cb chat.Callback, ev dialog.Event, err error, printer messages.Printer) {
	var constraint *dialog.ConstraintError
	switch {
	case errors.As(err, &constraint):
		b.acknowledge(ctx, cb.ID, printer.Text(commitAlertKey(constraint.Reason),
			"max_duration", strconv.Itoa(b.cfg.Clip.MaxDuration)), true)
	case errors.Is(err, dialog.ErrBusy):
		b.acknowledge(ctx, cb.ID, printer.Text(messages.AlertBusy), false)
	case errors.Is(err, services.ErrSessionNotFound):
		b.acknowledge(ctx, cb.ID, printer.Text(messages.AlertSessionExpired), true)
	default:
		// Presses the current view does not offer, such as a stale settings button.
		b.userLogger(ctx).Debug("callback ignored",
			logging.String("event", ev.Kind.String()),
			logging.String("data", cb.Data),
			logging.Error(err),
		)
		b.acknowledge(ctx, cb.ID, "", false)
	}
}
