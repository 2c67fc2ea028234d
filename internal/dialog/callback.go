package dialog

import (
	"strconv"
	"strings"

	"clipbot/internal/session"
)

// Action is the family a callback token belongs to.
type Action string

const (
	ActionUnknown      Action = ""
	ActionStart        Action = "start"
	ActionEnd          Action = "end"
	ActionDuration     Action = "duration"
	ActionOpenSettings Action = "open_settings"
	ActionSet          Action = "set"
	ActionBack         Action = "back"
	ActionDone         Action = "done"
	ActionCancel       Action = "cancel"
)

// Families with a parameter, longest prefix first so "open_settings_width"
// never matches a shorter family.
var parameterised = []Action{ActionOpenSettings, ActionDuration, ActionStart, ActionEnd, ActionSet}

const tokenSeparator = "_"

// Token is a parsed callback payload.
type Token struct {
	Action Action
	Param  string
}

// Encode renders the token as action or action_param.
func (t Token) Encode() string {
	if t.Param == "" {
		return string(t.Action)
	}
	return string(t.Action) + tokenSeparator + t.Param
}

// ParseToken splits a callback payload into its action family and parameter.
// Unknown payloads report false.
func ParseToken(data string) (Token, bool) {
	switch Action(data) {
	case ActionOpenSettings, ActionBack, ActionDone, ActionCancel:
		return Token{Action: Action(data)}, true
	}
	for _, action := range parameterised {
		prefix := string(action) + tokenSeparator
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		param := strings.TrimPrefix(data, prefix)
		if param == "" {
			return Token{}, false
		}
		return Token{Action: action, Param: param}, true
	}
	return Token{}, false
}

// SetToken builds the token that selects value for a setting.
func SetToken(setting session.Setting, value int) Token {
	return Token{Action: ActionSet, Param: string(setting) + tokenSeparator + strconv.Itoa(value)}
}

// OpenFieldToken builds the token that opens a setting's option menu.
func OpenFieldToken(setting session.Setting) Token {
	return Token{Action: ActionOpenSettings, Param: string(setting)}
}

// Selection decodes the parameter of a set token.
func (t Token) Selection() (session.Setting, int, bool) {
	if t.Action != ActionSet {
		return "", 0, false
	}
	name, raw, ok := strings.Cut(t.Param, tokenSeparator)
	if !ok {
		return "", 0, false
	}
	setting, ok := session.ParseSetting(name)
	if !ok {
		return "", 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || !setting.Valid(value) {
		return "", 0, false
	}
	return setting, value, true
}

// Field returns the setting named by an open_settings_<field> token.
func (t Token) Field() (session.Setting, bool) {
	if t.Action != ActionOpenSettings || t.Param == "" {
		return "", false
	}
	return session.ParseSetting(t.Param)
}

// Event converts a token into a dialogue event. The boolean is false for
// tokens that carry no transition (malformed parameters).
func (t Token) Event() (Event, bool) {
	switch t.Action {
	case ActionStart:
		return Event{Kind: EventEditField, Field: session.WaitingStart}, true
	case ActionEnd:
		return Event{Kind: EventEditField, Field: session.WaitingEnd}, true
	case ActionDuration:
		return Event{Kind: EventEditField, Field: session.WaitingDuration}, true
	case ActionOpenSettings:
		if t.Param == "" {
			return Event{Kind: EventOpenSettings}, true
		}
		setting, ok := t.Field()
		if !ok {
			return Event{}, false
		}
		return Event{Kind: EventOpenField, Setting: setting}, true
	case ActionSet:
		setting, value, ok := t.Selection()
		if !ok {
			return Event{}, false
		}
		return Event{Kind: EventSelect, Setting: setting, Value: value}, true
	case ActionBack:
		return Event{Kind: EventBack}, true
	case ActionDone:
		return Event{Kind: EventCommit}, true
	case ActionCancel:
		return Event{Kind: EventCancel}, true
	default:
		return Event{}, false
	}
}
