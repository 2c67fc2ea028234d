package bot

import (
	"strconv"

	"clipbot/internal/chat"
	"clipbot/internal/dialog"
	"clipbot/internal/messages"
	"clipbot/internal/session"
	"clipbot/internal/timecode"
)

func previewCaption(p messages.Printer, sess session.Session) string {
	return p.Text(messages.VideoCaption,
		"title", sess.Title,
		"duration", timecode.Format(sess.SourceDuration),
	)
}

// rangeControls is the preview keyboard: one row per range field, then
// settings, then commit and cancel.
func rangeControls(p messages.Printer, sess session.Session) chat.Keyboard {
	start := timecode.Format(sess.Start)
	end := timecode.Format(sess.End)
	length := strconv.Itoa(sess.ClipLength())
	return chat.Keyboard{
		chat.Row(chat.Button{
			Text: p.Text(messages.ButtonStart, "time", start),
			Data: dialog.Token{Action: dialog.ActionStart, Param: start}.Encode(),
		}),
		chat.Row(chat.Button{
			Text: p.Text(messages.ButtonEnd, "time", end),
			Data: dialog.Token{Action: dialog.ActionEnd, Param: end}.Encode(),
		}),
		chat.Row(chat.Button{
			Text: p.Text(messages.ButtonDuration, "seconds", length),
			Data: dialog.Token{Action: dialog.ActionDuration, Param: length}.Encode(),
		}),
		chat.Row(chat.Button{
			Text: p.Text(messages.ButtonSettings),
			Data: dialog.Token{Action: dialog.ActionOpenSettings}.Encode(),
		}),
		chat.Row(
			chat.Button{Text: p.Text(messages.ButtonDone), Data: dialog.Token{Action: dialog.ActionDone}.Encode()},
			chat.Button{Text: p.Text(messages.ButtonCancel), Data: dialog.Token{Action: dialog.ActionCancel}.Encode()},
		),
	}
}

func settingsCaption(p messages.Printer, settings session.EncodeSettings) string {
	return p.Text(messages.SettingsTitle,
		"fps", strconv.Itoa(settings.FrameRate),
		"width", strconv.Itoa(settings.Width),
		"colors", strconv.Itoa(settings.PaletteSize),
	)
}

var settingButtons = map[session.Setting]messages.Key{
	session.SettingFrameRate: messages.ButtonFrameRate,
	session.SettingWidth:     messages.ButtonWidth,
	session.SettingPalette:   messages.ButtonPalette,
}

// settingsControls renders the menu the session is showing: the field list
// for the main menu, or the option row of one field with the active value marked.
func settingsControls(p messages.Printer, sess session.Session) chat.Keyboard {
	back := chat.Button{Text: p.Text(messages.ButtonBack), Data: dialog.Token{Action: dialog.ActionBack}.Encode()}

	if setting, ok := session.SettingForMenu(sess.Menu); ok {
		current := sess.Settings.Get(setting)
		options := make([]chat.Button, 0, len(setting.Options()))
		for _, value := range setting.Options() {
			label := strconv.Itoa(value)
			if value == current {
				label = p.Text(messages.ButtonSelected, "value", label)
			}
			options = append(options, chat.Button{Text: label, Data: dialog.SetToken(setting, value).Encode()})
		}
		return chat.Keyboard{options, chat.Row(back)}
	}

	rows := make(chat.Keyboard, 0, len(session.Settings)+1)
	for _, setting := range session.Settings {
		rows = append(rows, chat.Row(chat.Button{
			Text: p.Text(settingButtons[setting], "value", strconv.Itoa(sess.Settings.Get(setting))),
			Data: dialog.OpenFieldToken(setting).Encode(),
		}))
	}
	rows = append(rows, chat.Row(
		back,
		chat.Button{Text: p.Text(messages.ButtonCancel), Data: dialog.Token{Action: dialog.ActionCancel}.Encode()},
	))
	return rows
}

func promptKey(field session.WaitingFor) messages.Key {
	switch field {
	case session.WaitingEnd:
		return messages.PromptEnd
	case session.WaitingDuration:
		return messages.PromptDuration
	default:
		return messages.PromptStart
	}
}

func confirmationKey(field session.WaitingFor) messages.Key {
	switch field {
	case session.WaitingEnd:
		return messages.EndSet
	case session.WaitingDuration:
		return messages.DurationSet
	default:
		return messages.StartSet
	}
}

// inputErrorKey maps a rejected reply onto the message shown to the user.
func inputErrorKey(field session.WaitingFor, reason dialog.Reason) messages.Key {
	switch reason {
	case dialog.ReasonStartBeyondSource:
		return messages.ErrorStartTooLate
	case dialog.ReasonEndBeyondSource:
		return messages.ErrorEndTooLate
	case dialog.ReasonEndNotAfterStart:
		return messages.ErrorEndBeforeStart
	case dialog.ReasonTooLong:
		return messages.ErrorDurationTooLong
	case dialog.ReasonDurationBeyondSource:
		return messages.ErrorDurationPastVideo
	}
	if field == session.WaitingDuration {
		return messages.ErrorDurationFormat
	}
	return messages.ErrorTimeFormat
}

// commitAlertKey maps a commit rejection onto the callback alert text.
func commitAlertKey(reason dialog.Reason) messages.Key {
	if reason == dialog.ReasonTooLong {
		return messages.AlertDurationTooLong
	}
	return messages.AlertEndBeforeStart
}
