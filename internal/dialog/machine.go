package dialog

import (
	"errors"
	"fmt"

	"clipbot/internal/chat"
	"clipbot/internal/services"
	"clipbot/internal/session"
	"clipbot/internal/timecode"
)

// State is the combined dialogue state derived from a session.
type State int

const (
	StateIdle State = iota
	StateReady
	StateAwaitingStart
	StateAwaitingEnd
	StateAwaitingDuration
	StateSettingsMain
	StateSettingsField
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateAwaitingStart:
		return "awaiting_start"
	case StateAwaitingEnd:
		return "awaiting_end"
	case StateAwaitingDuration:
		return "awaiting_duration"
	case StateSettingsMain:
		return "settings_main"
	case StateSettingsField:
		return "settings_field"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Awaiting reports whether an input prompt is outstanding.
func (s State) Awaiting() bool {
	return s == StateAwaitingStart || s == StateAwaitingEnd || s == StateAwaitingDuration
}

// StateOf derives the dialogue state of a session; nil means Idle.
func StateOf(s *session.Session) State {
	switch {
	case s == nil:
		return StateIdle
	case s.Processing:
		return StateProcessing
	case s.WaitingFor == session.WaitingStart:
		return StateAwaitingStart
	case s.WaitingFor == session.WaitingEnd:
		return StateAwaitingEnd
	case s.WaitingFor == session.WaitingDuration:
		return StateAwaitingDuration
	case s.Menu == session.MenuMain:
		return StateSettingsMain
	case s.Menu != session.MenuClosed:
		return StateSettingsField
	default:
		return StateReady
	}
}

// EventKind enumerates the inputs the dialogue reacts to.
type EventKind int

const (
	EventEditField EventKind = iota + 1
	EventInput
	EventOpenSettings
	EventOpenField
	EventSelect
	EventBack
	EventCommit
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventEditField:
		return "edit_field"
	case EventInput:
		return "input"
	case EventOpenSettings:
		return "open_settings"
	case EventOpenField:
		return "open_field"
	case EventSelect:
		return "select"
	case EventBack:
		return "back"
	case EventCommit:
		return "commit"
	case EventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is one dialogue input.
type Event struct {
	Kind EventKind
	// Field is the range field an EditField event asks for.
	Field session.WaitingFor
	// Prompt is the already-sent prompt message for EditField.
	Prompt chat.MessageRef
	// Text is the user's reply for Input.
	Text    string
	Setting session.Setting
	Value   int
}

// Effect is an outbound side effect the caller performs after a transition
// commits.
type Effect int

const (
	// EffectRetirePrompt deletes Result.RetiredPrompt.
	EffectRetirePrompt Effect = iota + 1
	// EffectRetireReply deletes the user's reply message.
	EffectRetireReply
	// EffectConfirm tells the user which field was set.
	EffectConfirm
	// EffectRefreshPreview redraws the preview controls with the new range.
	EffectRefreshPreview
	// EffectShowSettings redraws the preview as the current settings menu.
	EffectShowSettings
	// EffectRestorePreview redraws the original caption and range controls.
	EffectRestorePreview
	// EffectRetirePreview deletes the preview message.
	EffectRetirePreview
	// EffectDestroy removes the session.
	EffectDestroy
	// EffectRun starts the clip pipeline.
	EffectRun
)

// Result describes a committed transition.
type Result struct {
	From    State
	To      State
	Effects []Effect
	// RetiredPrompt is the prompt a transition replaced or answered.
	RetiredPrompt chat.MessageRef
	// Confirmed is the range field an accepted input set.
	Confirmed session.WaitingFor
}

// Has reports whether the result requests effect.
func (r Result) Has(effect Effect) bool {
	for _, e := range r.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

var (
	// ErrBusy rejects every event once the pipeline has started.
	ErrBusy = errors.New("clip is already being processed")
	// ErrInvalidTransition rejects an event the current state does not accept.
	ErrInvalidTransition = errors.New("event not accepted in current state")
)

// Limits bounds the selectable range.
type Limits struct {
	// MaxClipSeconds caps end minus start. Zero disables the cap.
	MaxClipSeconds int
}

// Machine applies events to sessions using a fixed transition table.
type Machine struct {
	Limits Limits
}

type transition func(m Machine, s *session.Session, ev Event, res *Result) error

var transitions map[State]map[EventKind]transition

func init() {
	awaiting := map[EventKind]transition{
		EventEditField:    editField,
		EventInput:        acceptInput,
		EventOpenSettings: openSettings,
		EventCommit:       commit,
		EventCancel:       cancel,
	}
	transitions = map[State]map[EventKind]transition{
		StateReady: {
			EventEditField:    editField,
			EventOpenSettings: openSettings,
			EventCommit:       commit,
			EventCancel:       cancel,
		},
		StateAwaitingStart:    awaiting,
		StateAwaitingEnd:      awaiting,
		StateAwaitingDuration: awaiting,
		StateSettingsMain: {
			EventOpenField: openField,
			EventBack:      closeSettings,
			EventCancel:    cancel,
		},
		StateSettingsField: {
			EventSelect: selectOption,
			EventBack:   backToMain,
			EventCancel: cancel,
		},
	}
}

// Apply runs ev against s in place. On error s may be partially modified and
// must be discarded; Store.Mutate does this.
func (m Machine) Apply(s *session.Session, ev Event) (Result, error) {
	from := StateOf(s)
	res := Result{From: from}
	switch from {
	case StateIdle:
		return res, services.ErrSessionNotFound
	case StateProcessing:
		return res, ErrBusy
	}
	fn, ok := transitions[from][ev.Kind]
	if !ok {
		return res, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, ev.Kind, from)
	}
	if err := fn(m, s, ev, &res); err != nil {
		return res, err
	}
	res.To = StateOf(s)
	return res, nil
}

func retirePending(s *session.Session, res *Result) {
	if s.WaitingFor == session.WaitingNone {
		return
	}
	res.RetiredPrompt = s.PendingPrompt
	res.Effects = append(res.Effects, EffectRetirePrompt)
	s.WaitingFor = session.WaitingNone
	s.PendingPrompt = chat.MessageRef{}
}

func editField(_ Machine, s *session.Session, ev Event, res *Result) error {
	if ev.Field == session.WaitingNone || ev.Prompt.IsZero() {
		return fmt.Errorf("%w: edit requires a field and prompt", ErrInvalidTransition)
	}
	retirePending(s, res)
	s.WaitingFor = ev.Field
	s.PendingPrompt = ev.Prompt
	return nil
}

func acceptInput(m Machine, s *session.Session, ev Event, res *Result) error {
	field := s.WaitingFor
	switch field {
	case session.WaitingStart:
		start, err := timecode.Parse(ev.Text)
		if err != nil {
			return err
		}
		if start < 0 {
			return &ConstraintError{Reason: ReasonOutsideSource}
		}
		if start >= s.SourceDuration {
			return &ConstraintError{Reason: ReasonStartBeyondSource}
		}
		s.Start = start
	case session.WaitingEnd:
		end, err := timecode.Parse(ev.Text)
		if err != nil {
			return err
		}
		if err := m.checkEnd(s.Start, end, s.SourceDuration, ReasonEndBeyondSource); err != nil {
			return err
		}
		s.End = end
	case session.WaitingDuration:
		length, err := timecode.ParseDuration(ev.Text)
		if err != nil {
			return err
		}
		if m.Limits.MaxClipSeconds > 0 && length > m.Limits.MaxClipSeconds {
			return &ConstraintError{Reason: ReasonTooLong}
		}
		end := s.Start + length
		if err := m.checkEnd(s.Start, end, s.SourceDuration, ReasonDurationBeyondSource); err != nil {
			return err
		}
		s.End = end
	}
	retirePending(s, res)
	res.Confirmed = field
	res.Effects = append(res.Effects, EffectRetireReply, EffectConfirm, EffectRefreshPreview)
	return nil
}

func (m Machine) checkEnd(start, end, duration int, late Reason) error {
	switch {
	case start < 0 || end < 0:
		return &ConstraintError{Reason: ReasonOutsideSource}
	case end > duration:
		return &ConstraintError{Reason: late}
	case end <= start:
		return &ConstraintError{Reason: ReasonEndNotAfterStart}
	case m.Limits.MaxClipSeconds > 0 && end-start > m.Limits.MaxClipSeconds:
		return &ConstraintError{Reason: ReasonTooLong}
	}
	return nil
}

func openSettings(_ Machine, s *session.Session, _ Event, res *Result) error {
	retirePending(s, res)
	s.Menu = session.MenuMain
	res.Effects = append(res.Effects, EffectShowSettings)
	return nil
}

func openField(_ Machine, s *session.Session, ev Event, res *Result) error {
	if _, ok := session.ParseSetting(string(ev.Setting)); !ok {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidTransition, ev.Setting)
	}
	s.Menu = ev.Setting.Menu()
	res.Effects = append(res.Effects, EffectShowSettings)
	return nil
}

func selectOption(_ Machine, s *session.Session, ev Event, res *Result) error {
	if !ev.Setting.Valid(ev.Value) {
		return fmt.Errorf("%w: %s=%d", ErrInvalidTransition, ev.Setting, ev.Value)
	}
	s.Settings = s.Settings.With(ev.Setting, ev.Value)
	s.Menu = session.MenuMain
	res.Effects = append(res.Effects, EffectShowSettings)
	return nil
}

func backToMain(_ Machine, s *session.Session, _ Event, res *Result) error {
	s.Menu = session.MenuMain
	res.Effects = append(res.Effects, EffectShowSettings)
	return nil
}

func closeSettings(_ Machine, s *session.Session, _ Event, res *Result) error {
	s.Menu = session.MenuClosed
	res.Effects = append(res.Effects, EffectRestorePreview)
	return nil
}

func commit(m Machine, s *session.Session, _ Event, res *Result) error {
	retirePending(s, res)
	if err := m.Validate(*s); err != nil {
		return err
	}
	s.Processing = true
	res.Effects = append(res.Effects, EffectRetirePreview, EffectRun)
	return nil
}

func cancel(_ Machine, s *session.Session, _ Event, res *Result) error {
	retirePending(s, res)
	s.Menu = session.MenuClosed
	res.Effects = append(res.Effects, EffectRetirePreview, EffectDestroy)
	return nil
}
