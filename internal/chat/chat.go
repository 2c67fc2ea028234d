// Package chat describes the chat transport the bot consumes: outbound message
// operations, inline controls, and the inbound update shapes.
package chat

import "context"

// MessageRef is an opaque handle to a sent message.
type MessageRef struct {
	ChatID    int64
	MessageID int
	// Media is set when the message carries a photo or animation, which
	// changes how its text is edited.
	Media bool
}

// IsZero reports whether the handle points at nothing.
func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// Button is one inline control; Data is the callback token it emits.
type Button struct {
	Text string
	Data string
}

// Keyboard is a set of button rows.
type Keyboard [][]Button

// Row builds a keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// Transport is the outbound capability set of the chat service.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, controls Keyboard) (MessageRef, error)
	SendImage(ctx context.Context, chatID int64, image []byte, caption string, controls Keyboard) (MessageRef, error)
	SendAnimation(ctx context.Context, chatID int64, path, caption string) (MessageRef, error)
	EditControls(ctx context.Context, ref MessageRef, controls Keyboard) error
	// EditCaption replaces the caption of a media message, or the text of a
	// plain message, together with its controls.
	EditCaption(ctx context.Context, ref MessageRef, caption string, controls Keyboard) error
	DeleteMessage(ctx context.Context, ref MessageRef) error
	AcknowledgeCallback(ctx context.Context, callbackID, text string, alert bool) error
	MembershipStatus(ctx context.Context, channel string, userID int64) (string, error)
}

// User identifies the sender of an update.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LanguageCode string
}

// DisplayName returns the username, falling back to the first name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// Message is an inbound free-text message.
type Message struct {
	Ref  MessageRef
	From User
	Text string
}

// Callback is an inbound button press.
type Callback struct {
	ID      string
	From    User
	Message MessageRef
	Data    string
}

// Update is one inbound event; exactly one field is set.
type Update struct {
	Message  *Message
	Callback *Callback
}

// UserID returns the sender of the update, or 0 when unknown.
func (u Update) UserID() int64 {
	switch {
	case u.Message != nil:
		return u.Message.From.ID
	case u.Callback != nil:
		return u.Callback.From.ID
	default:
		return 0
	}
}

// Poller delivers inbound updates until ctx is done or the stream fails.
type Poller interface {
	Poll(ctx context.Context, handle func(Update)) error
}
