package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clipbot/internal/chat"
	"clipbot/internal/logging"
	"clipbot/internal/services"
)

// botAPI is the subset of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Options configures the client. UploadTimeout bounds sendAnimation and
// defaults to RequestTimeout; the library ignores contexts, so it is what
// actually limits clip delivery.
type Options struct {
	Token          string
	APIEndpoint    string
	RequestTimeout time.Duration
	PollTimeout    time.Duration
	UploadTimeout  time.Duration
	Debug          bool
}

// Client implements chat.Transport and chat.Poller.
type Client struct {
	api         botAPI
	username    string
	pollTimeout int
	logger      *slog.Logger
	offset      int
}

// New authenticates with the Bot API and returns a client.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "telegram", "connect", "bot token is empty", nil)
	}
	endpoint := strings.TrimSpace(opts.APIEndpoint)
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	poll := opts.PollTimeout
	if poll <= 0 {
		poll = 30 * time.Second
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	upload := opts.UploadTimeout
	if upload <= 0 {
		upload = timeout
	}
	// getUpdates holds the connection open for the poll timeout.
	httpClient := &deadlineClient{client: &http.Client{}, request: timeout + poll, upload: upload}

	logger = logging.NewComponentLogger(logger, "telegram")
	libLogger := logger
	if !opts.Debug {
		libLogger = logging.WithLevelOverride(logger, slog.LevelInfo)
	}
	_ = tgbotapi.SetLogger(botLogger{logger: libLogger})

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "telegram", "connect", "authenticate bot", err)
	}
	api.Debug = opts.Debug
	logger.Info("telegram bot authenticated",
		logging.String(logging.FieldEventType, "telegram_connected"),
		logging.String("username", api.Self.UserName),
	)
	return &Client{
		api:         api,
		username:    api.Self.UserName,
		pollTimeout: int(poll / time.Second),
		logger:      logger,
	}, nil
}

// Username returns the bot's @handle without the leading @.
func (c *Client) Username() string {
	return c.username
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string, controls chat.Keyboard) (chat.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return chat.MessageRef{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup, ok := inlineMarkup(controls); ok {
		msg.ReplyMarkup = markup
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return chat.MessageRef{}, services.Wrap(services.ErrTransport, "telegram", "sendMessage", "", err)
	}
	return refOf(sent), nil
}

func (c *Client) SendImage(ctx context.Context, chatID int64, image []byte, caption string, controls chat.Keyboard) (chat.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return chat.MessageRef{}, err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "thumbnail.jpg", Bytes: image})
	photo.Caption = caption
	if markup, ok := inlineMarkup(controls); ok {
		photo.ReplyMarkup = markup
	}
	sent, err := c.api.Send(photo)
	if err != nil {
		return chat.MessageRef{}, services.Wrap(services.ErrTransport, "telegram", "sendPhoto", "", err)
	}
	return refOf(sent), nil
}

func (c *Client) SendAnimation(ctx context.Context, chatID int64, path, caption string) (chat.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return chat.MessageRef{}, err
	}
	anim := tgbotapi.NewAnimation(chatID, tgbotapi.FilePath(path))
	anim.Caption = caption
	sent, err := c.api.Send(anim)
	if err != nil {
		return chat.MessageRef{}, services.Wrap(services.ErrDelivery, "telegram", "sendAnimation", "", err)
	}
	return refOf(sent), nil
}

func (c *Client) EditControls(ctx context.Context, ref chat.MessageRef, controls chat.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	markup, _ := inlineMarkup(controls)
	edit := tgbotapi.NewEditMessageReplyMarkup(ref.ChatID, ref.MessageID, markup)
	return c.request(edit, "editMessageReplyMarkup")
}

func (c *Client) EditCaption(ctx context.Context, ref chat.MessageRef, caption string, controls chat.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	markup, hasMarkup := inlineMarkup(controls)
	if ref.Media {
		edit := tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, caption)
		if hasMarkup {
			edit.ReplyMarkup = &markup
		}
		return c.request(edit, "editMessageCaption")
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, caption, markup)
	return c.request(edit, "editMessageText")
}

func (c *Client) DeleteMessage(ctx context.Context, ref chat.MessageRef) error {
	if ref.IsZero() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID), "deleteMessage")
}

func (c *Client) AcknowledgeCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	return c.request(cb, "answerCallbackQuery")
}

// MembershipStatus returns the member status string ("member", "left", ...)
// of userID in channel, which may be an @username or a numeric chat id.
func (c *Client) MembershipStatus(ctx context.Context, channel string, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := tgbotapi.ChatConfigWithUser{UserID: userID}
	channel = strings.TrimSpace(channel)
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		target.ChatID = id
	} else {
		if !strings.HasPrefix(channel, "@") {
			channel = "@" + channel
		}
		target.SuperGroupUsername = channel
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{ChatConfigWithUser: target})
	if err != nil {
		return "", services.Wrap(services.ErrTransport, "telegram", "getChatMember", "", err)
	}
	return member.Status, nil
}

// Poll long-polls getUpdates and hands each update to handle in order. It
// returns nil when ctx ends and an error when a poll fails.
func (c *Client) Poll(ctx context.Context, handle func(chat.Update)) error {
	type batch struct {
		updates []tgbotapi.Update
		err     error
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		cfg := tgbotapi.NewUpdate(c.offset)
		cfg.Timeout = c.pollTimeout
		cfg.AllowedUpdates = []string{"message", "callback_query"}

		result := make(chan batch, 1)
		go func() {
			updates, err := c.api.GetUpdates(cfg)
			result <- batch{updates: updates, err: err}
		}()

		var got batch
		select {
		case <-ctx.Done():
			return nil
		case got = <-result:
		}
		if got.err != nil {
			return services.Wrap(services.ErrTransport, "telegram", "getUpdates", "polling failed", got.err)
		}
		for _, raw := range got.updates {
			if raw.UpdateID >= c.offset {
				c.offset = raw.UpdateID + 1
			}
			if update, ok := convertUpdate(raw); ok {
				handle(update)
			}
		}
	}
}

func (c *Client) request(req tgbotapi.Chattable, method string) error {
	if _, err := c.api.Request(req); err != nil {
		if isNotModified(err) {
			return nil
		}
		return services.Wrap(services.ErrTransport, "telegram", method, "", err)
	}
	return nil
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, "message is not modified")
	}
	return strings.Contains(err.Error(), "message is not modified")
}

func inlineMarkup(controls chat.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(controls) == 0 {
		return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(controls))
	for _, row := range controls {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func refOf(msg tgbotapi.Message) chat.MessageRef {
	ref := chat.MessageRef{MessageID: msg.MessageID}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	ref.Media = len(msg.Photo) > 0 || msg.Animation != nil || msg.Video != nil || msg.Document != nil
	return ref
}

func userOf(u *tgbotapi.User) chat.User {
	if u == nil {
		return chat.User{}
	}
	return chat.User{
		ID:           u.ID,
		Username:     u.UserName,
		FirstName:    u.FirstName,
		LanguageCode: u.LanguageCode,
	}
}

func convertUpdate(raw tgbotapi.Update) (chat.Update, bool) {
	switch {
	case raw.Message != nil:
		if raw.Message.From == nil || raw.Message.Chat == nil {
			return chat.Update{}, false
		}
		return chat.Update{Message: &chat.Message{
			Ref:  refOf(*raw.Message),
			From: userOf(raw.Message.From),
			Text: raw.Message.Text,
		}}, true
	case raw.CallbackQuery != nil:
		cb := raw.CallbackQuery
		if cb.From == nil {
			return chat.Update{}, false
		}
		update := chat.Update{Callback: &chat.Callback{
			ID:   cb.ID,
			From: userOf(cb.From),
			Data: cb.Data,
		}}
		if cb.Message != nil {
			update.Callback.Message = refOf(*cb.Message)
		}
		return update, true
	default:
		return chat.Update{}, false
	}
}

// botLogger routes the library's internal logging through slog.
type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
