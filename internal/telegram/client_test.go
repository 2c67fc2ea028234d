package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clipbot/internal/chat"
	"clipbot/internal/logging"
	"clipbot/internal/services"
)

type fakeAPI struct {
	sent       []tgbotapi.Chattable
	requests   []tgbotapi.Chattable
	requestErr error
	batches    [][]tgbotapi.Update
	pollErr    error
	offsets    []int
	member     tgbotapi.GetChatMemberConfig
	status     string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: 5}, Photo: []tgbotapi.PhotoSize{{FileID: "x"}}}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: f.requestErr == nil}, f.requestErr
}

func (f *fakeAPI) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.offsets = append(f.offsets, cfg.Offset)
	if len(f.batches) == 0 {
		return nil, f.pollErr
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func (f *fakeAPI) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.member = cfg
	return tgbotapi.ChatMember{Status: f.status}, nil
}

func newTestClient(api *fakeAPI) *Client {
	return &Client{api: api, pollTimeout: 1, logger: logging.NewNop()}
}

func TestSendImageMarksMedia(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)
	ref, err := c.SendImage(context.Background(), 5, []byte("jpg"), "caption", chat.Keyboard{chat.Row(chat.Button{Text: "Done", Data: "done"})})
	if err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	if !ref.Media || ref.ChatID != 5 || ref.MessageID != 10 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("expected photo config, got %T", api.sent[0])
	}
	markup, ok := photo.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || markup.InlineKeyboard[0][0].CallbackData == nil || *markup.InlineKeyboard[0][0].CallbackData != "done" {
		t.Fatalf("unexpected markup %#v", photo.ReplyMarkup)
	}
}

func TestEditCaptionPicksMethodByMedia(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)
	if err := c.EditCaption(context.Background(), chat.MessageRef{ChatID: 1, MessageID: 2, Media: true}, "x", nil); err != nil {
		t.Fatal(err)
	}
	if err := c.EditCaption(context.Background(), chat.MessageRef{ChatID: 1, MessageID: 3}, "y", nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := api.requests[0].(tgbotapi.EditMessageCaptionConfig); !ok {
		t.Fatalf("expected caption edit, got %T", api.requests[0])
	}
	if _, ok := api.requests[1].(tgbotapi.EditMessageTextConfig); !ok {
		t.Fatalf("expected text edit, got %T", api.requests[1])
	}
}

func TestNotModifiedIsSuccess(t *testing.T) {
	api := &fakeAPI{requestErr: &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}}
	c := newTestClient(api)
	if err := c.EditControls(context.Background(), chat.MessageRef{ChatID: 1, MessageID: 2}, nil); err != nil {
		t.Fatalf("expected not-modified to be swallowed, got %v", err)
	}
	api.requestErr = &tgbotapi.Error{Code: 400, Message: "Bad Request: message to delete not found"}
	err := c.DeleteMessage(context.Background(), chat.MessageRef{ChatID: 1, MessageID: 2})
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestDeleteZeroRefIsNoop(t *testing.T) {
	api := &fakeAPI{}
	if err := newTestClient(api).DeleteMessage(context.Background(), chat.MessageRef{}); err != nil {
		t.Fatal(err)
	}
	if len(api.requests) != 0 {
		t.Fatal("no request expected for empty ref")
	}
}

func TestMembershipStatusTargets(t *testing.T) {
	api := &fakeAPI{status: "member"}
	c := newTestClient(api)
	status, err := c.MembershipStatus(context.Background(), "mychannel", 9)
	if err != nil || status != "member" {
		t.Fatalf("unexpected %q %v", status, err)
	}
	if api.member.SuperGroupUsername != "@mychannel" || api.member.UserID != 9 {
		t.Fatalf("unexpected target %+v", api.member.ChatConfigWithUser)
	}
	if _, err := c.MembershipStatus(context.Background(), "-100123", 9); err != nil {
		t.Fatal(err)
	}
	if api.member.ChatID != -100123 {
		t.Fatalf("expected numeric chat id, got %+v", api.member.ChatConfigWithUser)
	}
}

func TestPollAdvancesOffsetAndStopsOnError(t *testing.T) {
	api := &fakeAPI{
		batches: [][]tgbotapi.Update{{
			{UpdateID: 7, Message: &tgbotapi.Message{MessageID: 1, Text: "hi", From: &tgbotapi.User{ID: 3, LanguageCode: "ru"}, Chat: &tgbotapi.Chat{ID: 3}}},
			{UpdateID: 8, CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb", Data: "done", From: &tgbotapi.User{ID: 3}, Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: 3}}}},
			{UpdateID: 9},
		}},
		pollErr: errors.New("network down"),
	}
	c := newTestClient(api)
	var got []chat.Update
	err := c.Poll(context.Background(), func(u chat.Update) { got = append(got, u) })
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(got))
	}
	if got[0].Message == nil || got[0].Message.From.LanguageCode != "ru" || got[0].UserID() != 3 {
		t.Fatalf("unexpected message update %+v", got[0])
	}
	if got[1].Callback == nil || got[1].Callback.Message.MessageID != 2 {
		t.Fatalf("unexpected callback update %+v", got[1])
	}
	if len(api.offsets) != 2 || api.offsets[1] != 10 {
		t.Fatalf("expected second poll at offset 10, got %v", api.offsets)
	}
}

func TestPollReturnsOnCancel(t *testing.T) {
	api := &fakeAPI{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := newTestClient(api).Poll(ctx, func(chat.Update) {}); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
}
