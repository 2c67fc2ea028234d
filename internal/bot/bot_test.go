package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"clipbot/internal/chat"
	"clipbot/internal/config"
	"clipbot/internal/dialog"
	"clipbot/internal/history"
	"clipbot/internal/logging"
	"clipbot/internal/notifications"
	"clipbot/internal/pipeline"
	"clipbot/internal/services"
	"clipbot/internal/session"
	"clipbot/internal/testsupport"
)

const (
	testUser = int64(42)
	testChat = int64(42)
	videoURL = "https://youtu.be/dQw4w9WgXcQ"
)

type sentText struct {
	ref      chat.MessageRef
	text     string
	controls chat.Keyboard
}

type ack struct {
	id    string
	text  string
	alert bool
}

type fakeTransport struct {
	mu          sync.Mutex
	nextID      int
	texts       []sentText
	images      int
	animations  []string
	controls    []chat.Keyboard
	captions    []string
	deleted     []int
	acks        []ack
	status      string
	statusErr   error
	deleteErr   error
	sendTextErr error
}

func (f *fakeTransport) ref(chatID int64, media bool) chat.MessageRef {
	f.nextID++
	return chat.MessageRef{ChatID: chatID, MessageID: f.nextID, Media: media}
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, controls chat.Keyboard) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendTextErr != nil {
		return chat.MessageRef{}, f.sendTextErr
	}
	ref := f.ref(chatID, false)
	f.texts = append(f.texts, sentText{ref: ref, text: text, controls: controls})
	return ref, nil
}

func (f *fakeTransport) SendImage(_ context.Context, chatID int64, _ []byte, _ string, _ chat.Keyboard) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images++
	return f.ref(chatID, true), nil
}

func (f *fakeTransport) SendAnimation(_ context.Context, chatID int64, path, caption string) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.animations = append(f.animations, path+"|"+caption)
	return f.ref(chatID, true), nil
}

func (f *fakeTransport) EditControls(_ context.Context, _ chat.MessageRef, controls chat.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, controls)
	return nil
}

func (f *fakeTransport) EditCaption(_ context.Context, _ chat.MessageRef, caption string, controls chat.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captions = append(f.captions, caption)
	f.controls = append(f.controls, controls)
	return nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, ref chat.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref.MessageID)
	return f.deleteErr
}

func (f *fakeTransport) AcknowledgeCallback(_ context.Context, id, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, ack{id: id, text: text, alert: alert})
	return nil
}

func (f *fakeTransport) MembershipStatus(context.Context, string, int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.statusErr
}

func (f *fakeTransport) lastText() sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return sentText{}
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeTransport) wasDeleted(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deleted {
		if d == id {
			return true
		}
	}
	return false
}

func (f *fakeTransport) lastAck() ack {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.acks) == 0 {
		return ack{}
	}
	return f.acks[len(f.acks)-1]
}

type fakeSource struct {
	meta session.Metadata
	err  error
}

func (f *fakeSource) Metadata(context.Context, string) (session.Metadata, error) {
	return f.meta, f.err
}

type fakeRunner struct {
	mu   sync.Mutex
	jobs []pipeline.Job
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, job pipeline.Job, deliver pipeline.Deliverer) (pipeline.Outcome, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	if f.err != nil {
		return pipeline.Outcome{RunID: job.RunID, Stage: pipeline.StageTranscode}, f.err
	}
	if err := deliver.Deliver(ctx, "/tmp/final.gif"); err != nil {
		return pipeline.Outcome{RunID: job.RunID, Stage: pipeline.StageDeliver}, err
	}
	return pipeline.Outcome{RunID: job.RunID, Stage: pipeline.StageDeliver, SizeBytes: 2048}, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	begun    []history.Run
	finished map[string]history.Completion
}

func (f *fakeRecorder) Begin(_ context.Context, run history.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun = append(f.begun, run)
	return nil
}

func (f *fakeRecorder) Finish(_ context.Context, id string, done history.Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished == nil {
		f.finished = make(map[string]history.Completion)
	}
	f.finished[id] = done
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type harness struct {
	bot       *Bot
	transport *fakeTransport
	source    *fakeSource
	runner    *fakeRunner
	recorder  *fakeRecorder
	notifier  *recordingNotifier
	sessions  *session.Store
	cfg       *config.Config
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Sessions.ConfirmationDelay = 0
	h := &harness{
		transport: &fakeTransport{status: "member"},
		source:    &fakeSource{meta: session.Metadata{Title: "Never Gonna", DurationSeconds: 60, SourceWidth: 1280}},
		runner:    &fakeRunner{},
		recorder:  &fakeRecorder{},
		notifier:  &recordingNotifier{},
		sessions:  session.NewStore(),
		cfg:       cfg,
	}
	b, err := New(cfg, Dependencies{
		Transport: h.transport,
		Sessions:  h.sessions,
		Source:    h.source,
		Runner:    h.runner,
		History:   h.recorder,
		Notifier:  h.notifier,
		Gate:      NewGate(h.transport, cfg.Telegram.SubscriptionChannel, 0, logging.NewNop()),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.bot = b
	return h
}

func (h *harness) say(text string) {
	h.transport.mu.Lock()
	h.transport.nextID++
	ref := chat.MessageRef{ChatID: testChat, MessageID: h.transport.nextID}
	h.transport.mu.Unlock()
	h.bot.Handle(context.Background(), chat.Update{Message: &chat.Message{
		Ref:  ref,
		From: chat.User{ID: testUser, LanguageCode: "en"},
		Text: text,
	}})
	h.bot.Wait()
}

func (h *harness) press(data string) {
	sess, _ := h.sessions.Get(testUser)
	h.pressOn(sess.Preview, data)
}

func (h *harness) pressOn(ref chat.MessageRef, data string) {
	h.bot.Handle(context.Background(), chat.Update{Callback: &chat.Callback{
		ID:      "cb-" + data,
		From:    chat.User{ID: testUser, LanguageCode: "en"},
		Message: ref,
		Data:    data,
	}})
	h.bot.Wait()
}

func (h *harness) session(t *testing.T) session.Session {
	t.Helper()
	sess, err := h.sessions.Get(testUser)
	if err != nil {
		t.Fatalf("expected live session: %v", err)
	}
	return sess
}

func TestLinkOpensSessionWithClampedDefaults(t *testing.T) {
	h := newHarness(t)
	h.say("look at this " + videoURL)

	sess := h.session(t)
	if sess.Start != 0 || sess.End != h.cfg.Clip.MaxDuration {
		t.Fatalf("expected range 0..%d, got %d..%d", h.cfg.Clip.MaxDuration, sess.Start, sess.End)
	}
	if sess.Preview.IsZero() {
		t.Fatal("expected preview handle on session")
	}
	if sess.Settings != session.DefaultEncodeSettings() {
		t.Fatalf("unexpected settings %+v", sess.Settings)
	}
	preview := h.transport.lastText()
	if !strings.Contains(preview.text, "Never Gonna") || len(preview.controls) != 5 {
		t.Fatalf("unexpected preview %+v", preview)
	}
	// the "getting info" status message is always retired
	if !h.transport.wasDeleted(preview.ref.MessageID - 1) {
		t.Fatalf("expected status message to be deleted, deleted=%v", h.transport.deleted)
	}
}

func TestMetadataFailureCreatesNoSession(t *testing.T) {
	h := newHarness(t)
	h.source.err = services.Wrap(services.ErrService, "metadata", "", "", errors.New("unavailable"))
	h.say(videoURL)

	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("expected no session after metadata failure")
	}
	if got := h.transport.lastText().text; !strings.Contains(got, "Error getting video information") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestDisallowedHostIsRejected(t *testing.T) {
	h := newHarness(t)
	h.say("https://example.com/watch?v=1")
	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("expected no session")
	}
	if got := h.transport.lastText().text; !strings.Contains(got, "valid YouTube") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestStartPromptAndReplyUpdatesRange(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	h.press("start_00:00:00")

	sess := h.session(t)
	if sess.WaitingFor != session.WaitingStart || sess.PendingPrompt.IsZero() {
		t.Fatalf("expected awaiting start with prompt, got %+v", sess)
	}
	prompt := sess.PendingPrompt

	h.say("00:00:05")
	sess = h.session(t)
	if sess.Start != 5 || sess.WaitingFor != session.WaitingNone || !sess.PendingPrompt.IsZero() {
		t.Fatalf("unexpected session after reply: %+v", sess)
	}
	if !h.transport.wasDeleted(prompt.MessageID) {
		t.Fatal("expected prompt to be retired")
	}
	if len(h.transport.controls) == 0 {
		t.Fatal("expected preview controls to be refreshed")
	}
}

func TestInvalidReplyKeepsAwaiting(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	h.press("end_00:00:15")

	h.say("soon")
	sess := h.session(t)
	if sess.WaitingFor != session.WaitingEnd {
		t.Fatalf("expected to keep awaiting end, got %v", sess.WaitingFor)
	}
	if got := h.transport.lastText().text; !strings.Contains(got, "Invalid time format") {
		t.Fatalf("unexpected reply %q", got)
	}

	h.say("00:02:00")
	if got := h.transport.lastText().text; !strings.Contains(got, "greater than video duration") {
		t.Fatalf("unexpected reply %q", got)
	}
	if sess := h.session(t); sess.End != 15 || sess.WaitingFor != session.WaitingEnd {
		t.Fatalf("session changed on rejected reply: %+v", sess)
	}
}

func TestDurationBeyondSourceRejected(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	h.press("start_00:00:00")
	h.say("55")
	h.press("duration_10")
	h.say("10")

	if got := h.transport.lastText().text; !strings.Contains(got, "beyond the end of the video") {
		t.Fatalf("unexpected reply %q", got)
	}
	sess := h.session(t)
	if sess.Start != 55 || sess.End != 15 {
		t.Fatalf("expected range unchanged, got %d..%d", sess.Start, sess.End)
	}
}

func TestSettingsMenuRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	h.press("open_settings")
	if sess := h.session(t); sess.Menu != session.MenuMain {
		t.Fatalf("expected main settings menu, got %v", sess.Menu)
	}
	h.press("open_settings_fps")
	h.press(dialog.SetToken(session.SettingFrameRate, 25).Encode())
	sess := h.session(t)
	if sess.Settings.FrameRate != 25 || sess.Menu != session.MenuMain {
		t.Fatalf("unexpected settings state %+v menu=%v", sess.Settings, sess.Menu)
	}
	h.press("back")
	if sess := h.session(t); sess.Menu != session.MenuClosed {
		t.Fatalf("expected settings closed, got %v", sess.Menu)
	}
	last := h.transport.captions[len(h.transport.captions)-1]
	if !strings.Contains(last, "Select the time range") {
		t.Fatalf("expected preview caption restored, got %q", last)
	}
}

func TestCommitRunsPipelineAndDestroysSession(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	preview := h.session(t).Preview
	h.press("done")

	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("expected session destroyed after run")
	}
	if len(h.runner.jobs) != 1 {
		t.Fatalf("expected one pipeline run, got %d", len(h.runner.jobs))
	}
	job := h.runner.jobs[0]
	if job.URL != videoURL || job.End != h.cfg.Clip.MaxDuration || job.SourceWidth != 1280 {
		t.Fatalf("unexpected job %+v", job)
	}
	if len(h.transport.animations) != 1 || !strings.Contains(h.transport.animations[0], "Never Gonna") {
		t.Fatalf("unexpected animations %v", h.transport.animations)
	}
	if !h.transport.wasDeleted(preview.MessageID) {
		t.Fatal("expected preview retired on commit")
	}
	done, ok := h.recorder.finished[job.RunID]
	if !ok || done.Status != history.StatusSucceeded || done.SizeBytes != 2048 {
		t.Fatalf("unexpected history completion %+v (ok=%v)", done, ok)
	}
}

func TestFailedRunReportsAndDestroysSession(t *testing.T) {
	h := newHarness(t)
	h.runner.err = services.Wrap(services.ErrProcess, pipeline.StageTranscode, "render", "", &services.ProcessError{Tool: "ffmpeg", ExitCode: 1})
	h.say(videoURL)
	h.press("done")

	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("expected session destroyed after failure")
	}
	if got := h.transport.lastText().text; !strings.Contains(got, "error occurred while creating the GIF") {
		t.Fatalf("unexpected reply %q", got)
	}
	job := h.runner.jobs[0]
	done := h.recorder.finished[job.RunID]
	if done.Status != history.StatusFailed || done.FailureKind != "process" || done.FailedStage != pipeline.StageTranscode {
		t.Fatalf("unexpected completion %+v", done)
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0] != notifications.EventClipFailed {
		t.Fatalf("expected clip failure notification, got %v", h.notifier.events)
	}
}

func TestCommitRejectedWhenRangeInvalid(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	if _, err := h.sessions.Mutate(testUser, func(s *session.Session) error {
		s.Start, s.End = 10, 10
		return nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	h.press("done")

	if len(h.runner.jobs) != 0 {
		t.Fatal("pipeline must not run for an invalid range")
	}
	got := h.transport.lastAck()
	if !got.alert || !strings.Contains(got.text, "after the start") {
		t.Fatalf("unexpected ack %+v", got)
	}
	if sess := h.session(t); sess.Processing {
		t.Fatal("session must stay ready")
	}
}

func TestCancelFromAwaitingRemovesSession(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	h.press("duration_15")
	prompt := h.session(t).PendingPrompt
	h.press("cancel")

	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("expected session removed")
	}
	if !h.transport.wasDeleted(prompt.MessageID) {
		t.Fatal("expected pending prompt retired")
	}
}

func TestCancelCommand(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	h.say("/cancel")
	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("expected session removed")
	}
	if got := h.transport.lastText().text; !strings.Contains(got, "Cancelled") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestStaleAndUnknownCallbacks(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)

	h.press("launch_rockets")
	if got := h.transport.lastAck(); got.text != "" || got.alert {
		t.Fatalf("unknown token should be acknowledged silently, got %+v", got)
	}

	h.pressOn(chat.MessageRef{ChatID: testChat, MessageID: 9999}, "done")
	if got := h.transport.lastAck(); !got.alert || !strings.Contains(got.text, "expired") {
		t.Fatalf("stale preview should report expiry, got %+v", got)
	}
	if len(h.runner.jobs) != 0 {
		t.Fatal("stale press must not start a run")
	}
}

func TestSubscriptionGateBlocksNonMembers(t *testing.T) {
	h := newHarness(t, testsupport.WithSubscriptionChannel("@clips"))
	h.transport.status = "left"
	h.say(videoURL)

	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("non-member must not get a session")
	}
	if got := h.transport.lastText().text; !strings.Contains(got, "@clips") {
		t.Fatalf("expected subscribe prompt, got %q", got)
	}

	h.transport.status = ""
	h.transport.statusErr = errors.New("chat not found")
	h.say(videoURL)
	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("failed membership check must count as not subscribed")
	}
}

func TestNewLinkReplacesReadySession(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	first := h.session(t).Preview
	h.say("https://www.youtube.com/watch?v=abc")

	sess := h.session(t)
	if sess.URL != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("expected replaced url, got %q", sess.URL)
	}
	if !h.transport.wasDeleted(first.MessageID) {
		t.Fatal("expected old preview retired")
	}
}

func TestExpireIdleRetiresPreview(t *testing.T) {
	h := newHarness(t)
	h.say(videoURL)
	preview := h.session(t).Preview

	h.bot.now = func() time.Time { return time.Now().Add(2 * h.cfg.IdleTTL()) }
	if n := h.bot.ExpireIdle(context.Background()); n != 1 {
		t.Fatalf("expected one expired session, got %d", n)
	}
	if !h.transport.wasDeleted(preview.MessageID) {
		t.Fatal("expected preview retired on expiry")
	}
	if _, err := h.sessions.Get(testUser); err == nil {
		t.Fatal("expected session removed")
	}
}
