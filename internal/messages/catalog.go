// Package messages holds the user-facing strings in every supported language.
package messages

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Key names one catalog entry.
type Key string

const (
	SubscribePrompt        Key = "subscribe_prompt"
	StartWelcome           Key = "start_welcome"
	Help                   Key = "help"
	PromptStart            Key = "prompt_start_time"
	PromptEnd              Key = "prompt_end_time"
	PromptDuration         Key = "prompt_duration"
	StartSet               Key = "start_time_set"
	EndSet                 Key = "end_time_set"
	DurationSet            Key = "duration_set"
	GettingInfo            Key = "getting_info"
	VideoCaption           Key = "video_caption"
	VideoTitleDefault      Key = "video_title_default"
	CreatingGIF            Key = "creating_gif"
	GIFReady               Key = "gif_ready"
	SettingsTitle          Key = "settings_title"
	ButtonStart            Key = "button_start"
	ButtonEnd              Key = "button_end"
	ButtonDuration         Key = "button_duration"
	ButtonSettings         Key = "button_settings"
	ButtonFrameRate        Key = "button_fps"
	ButtonWidth            Key = "button_width"
	ButtonPalette          Key = "button_colors"
	ButtonSelected         Key = "button_selected"
	ButtonBack             Key = "button_back"
	ButtonDone             Key = "button_done"
	ButtonCancel           Key = "button_cancel"
	ErrorInvalidURL        Key = "error_invalid_url"
	ErrorGettingInfo       Key = "error_getting_info"
	ErrorTimeFormat        Key = "error_invalid_time_format"
	ErrorDurationFormat    Key = "error_duration_invalid"
	ErrorStartTooLate      Key = "error_start_too_late"
	ErrorEndTooLate        Key = "error_end_too_late"
	ErrorEndBeforeStart    Key = "error_end_before_start"
	ErrorDurationTooLong   Key = "error_duration_too_long"
	ErrorDurationPastVideo Key = "error_duration_too_long_video"
	ErrorCreatingGIF       Key = "error_creating_gif"
	ErrorBusy              Key = "error_busy"
	SessionIdleClosed      Key = "session_idle_closed"
	Cancelled              Key = "cancelled"
	AlertSessionExpired    Key = "alert_session_expired"
	AlertCancelled         Key = "alert_cancelled"
	AlertEndBeforeStart    Key = "alert_end_before_start"
	AlertDurationTooLong   Key = "alert_duration_too_long"
	AlertBusy              Key = "alert_busy"
	AlertNotSubscribed     Key = "alert_not_subscribed"
)

var supported = []language.Tag{language.English, language.Russian}

var (
	matcherOnce sync.Once
	matcher     language.Matcher
)

// Printer renders catalog entries in one language.
type Printer struct {
	tag     language.Tag
	entries map[Key]string
}

// For picks the closest supported language for a client language code such
// as "ru" or "en-GB". Unknown or empty codes fall back to fallback, then English.
func For(code, fallback string) Printer {
	matcherOnce.Do(func() { matcher = language.NewMatcher(supported) })
	tag := language.English
	for _, raw := range []string{code, fallback} {
		if matched, ok := match(raw); ok {
			tag = matched
			break
		}
	}
	return Printer{tag: tag, entries: catalog[tag]}
}

func match(raw string) (language.Tag, bool) {
	if strings.TrimSpace(raw) == "" {
		return language.Und, false
	}
	desired, err := language.Parse(raw)
	if err != nil {
		return language.Und, false
	}
	_, idx, confidence := matcher.Match(desired)
	if confidence == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// Language returns the base language code of the printer.
func (p Printer) Language() string {
	base, _ := p.tag.Base()
	return base.String()
}

// Text renders key, substituting {name} placeholders from args given as
// name, value pairs. Missing keys fall back to English, then to the key itself.
func (p Printer) Text(key Key, args ...string) string {
	text, ok := p.entries[key]
	if !ok {
		text, ok = catalog[language.English][key]
	}
	if !ok {
		text = string(key)
	}
	if len(args) < 2 {
		return text
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
