package session

import (
	"time"

	"clipbot/internal/chat"
)

// WaitingFor names the field an outstanding input prompt is collecting.
type WaitingFor int

const (
	WaitingNone WaitingFor = iota
	WaitingStart
	WaitingEnd
	WaitingDuration
)

func (w WaitingFor) String() string {
	switch w {
	case WaitingStart:
		return "start"
	case WaitingEnd:
		return "end"
	case WaitingDuration:
		return "duration"
	default:
		return "none"
	}
}

// Menu identifies which settings view the preview message currently shows.
type Menu int

const (
	MenuClosed Menu = iota
	MenuMain
	MenuFrameRate
	MenuWidth
	MenuPalette
)

// Setting names one encode parameter.
type Setting string

const (
	SettingFrameRate Setting = "fps"
	SettingWidth     Setting = "width"
	SettingPalette   Setting = "colors"
)

// Settings lists the encode parameters in menu order.
var Settings = []Setting{SettingFrameRate, SettingWidth, SettingPalette}

var settingOptions = map[Setting][]int{
	SettingFrameRate: {10, 15, 20, 25},
	SettingWidth:     {360, 480, 720, 1080},
	SettingPalette:   {64, 128, 256},
}

// Options returns the fixed option set for a setting.
func (s Setting) Options() []int {
	return append([]int(nil), settingOptions[s]...)
}

// Valid reports whether value is one of the setting's options.
func (s Setting) Valid(value int) bool {
	for _, opt := range settingOptions[s] {
		if opt == value {
			return true
		}
	}
	return false
}

// Menu returns the field menu that edits this setting.
func (s Setting) Menu() Menu {
	switch s {
	case SettingFrameRate:
		return MenuFrameRate
	case SettingWidth:
		return MenuWidth
	case SettingPalette:
		return MenuPalette
	default:
		return MenuMain
	}
}

// SettingForMenu returns the setting edited by a field menu.
func SettingForMenu(m Menu) (Setting, bool) {
	switch m {
	case MenuFrameRate:
		return SettingFrameRate, true
	case MenuWidth:
		return SettingWidth, true
	case MenuPalette:
		return SettingPalette, true
	default:
		return "", false
	}
}

// ParseSetting maps a token fragment onto a Setting.
func ParseSetting(value string) (Setting, bool) {
	switch Setting(value) {
	case SettingFrameRate, SettingWidth, SettingPalette:
		return Setting(value), true
	default:
		return "", false
	}
}

// EncodeSettings are the user-selected render parameters.
type EncodeSettings struct {
	FrameRate   int
	Width       int
	PaletteSize int
}

// DefaultEncodeSettings returns 15 fps, 480 px, 128 colours.
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{FrameRate: 15, Width: 480, PaletteSize: 128}
}

// Get returns the current value of a setting.
func (e EncodeSettings) Get(s Setting) int {
	switch s {
	case SettingFrameRate:
		return e.FrameRate
	case SettingWidth:
		return e.Width
	case SettingPalette:
		return e.PaletteSize
	default:
		return 0
	}
}

// With returns a copy with one setting replaced.
func (e EncodeSettings) With(s Setting, value int) EncodeSettings {
	switch s {
	case SettingFrameRate:
		e.FrameRate = value
	case SettingWidth:
		e.Width = value
	case SettingPalette:
		e.PaletteSize = value
	}
	return e
}

// EffectiveWidth clamps the selected width to the source width. An unknown
// source width (zero) leaves the selection untouched.
func (e EncodeSettings) EffectiveWidth(sourceWidth int) int {
	if sourceWidth > 0 && sourceWidth < e.Width {
		return sourceWidth
	}
	return e.Width
}

// Metadata is what the video source reports about a URL.
type Metadata struct {
	Title           string
	DurationSeconds int
	ThumbnailURL    string
	SourceWidth     int
}

// Session is the live dialogue record for one user.
type Session struct {
	UserID int64
	ChatID int64

	URL            string
	Title          string
	SourceDuration int
	SourceWidth    int
	ThumbnailURL   string

	Start int
	End   int

	WaitingFor    WaitingFor
	PendingPrompt chat.MessageRef
	Preview       chat.MessageRef

	Settings EncodeSettings
	Menu     Menu

	Processing bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New builds a session from fetched metadata with default range and settings.
// initialLength is the preferred opening clip length; it is clamped to the
// source duration.
func New(userID, chatID int64, url string, meta Metadata, initialLength int) Session {
	end := initialLength
	if meta.DurationSeconds < end {
		end = meta.DurationSeconds
	}
	if end < 0 {
		end = 0
	}
	return Session{
		UserID:         userID,
		ChatID:         chatID,
		URL:            url,
		Title:          meta.Title,
		SourceDuration: meta.DurationSeconds,
		SourceWidth:    meta.SourceWidth,
		ThumbnailURL:   meta.ThumbnailURL,
		Start:          0,
		End:            end,
		Settings:       DefaultEncodeSettings(),
	}
}

// ClipLength is End minus Start.
func (s Session) ClipLength() int {
	return s.End - s.Start
}
