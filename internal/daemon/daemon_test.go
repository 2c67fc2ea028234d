package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clipbot/internal/api"
	"clipbot/internal/bot"
	"clipbot/internal/chat"
	"clipbot/internal/config"
	"clipbot/internal/history"
	"clipbot/internal/logging"
	"clipbot/internal/notifications"
	"clipbot/internal/session"
	"clipbot/internal/testsupport"
)

type scriptedPoller struct {
	mu       sync.Mutex
	failures int
	calls    int
	updates  []chat.Update
}

func (p *scriptedPoller) Poll(ctx context.Context, handle func(chat.Update)) error {
	p.mu.Lock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		p.mu.Unlock()
		return errors.New("connection reset")
	}
	updates := p.updates
	p.updates = nil
	p.mu.Unlock()

	for _, update := range updates {
		handle(update)
	}
	<-ctx.Done()
	return nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	handled  []chat.Update
	expired  int
	waited   bool
	sessions session.Counts
}

func (f *fakeDispatcher) Handle(_ context.Context, update chat.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handled = append(f.handled, update)
}

func (f *fakeDispatcher) ExpireIdle(context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired++
	return 0
}

func (f *fakeDispatcher) Status() bot.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bot.Status{Sessions: f.sessions, ActiveLanes: 1}
}

func (f *fakeDispatcher) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = true
}

func (f *fakeDispatcher) handledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handled)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) count(event notifications.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, e := range n.events {
		if e == event {
			total++
		}
	}
	return total
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Telegram.RestartBackoff = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testConfig(t)
	dispatcher := &fakeDispatcher{}
	d, err := New(cfg, Options{Poller: &scriptedPoller{}, Bot: dispatcher, BotUsername: "clip_bot"}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}

	other, err := New(cfg, Options{Poller: &scriptedPoller{}, Bot: &fakeDispatcher{}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("expected lock contention to prevent a second instance")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon stopped")
	}
	if !dispatcher.waited {
		t.Fatal("expected Stop to wait for the bot")
	}
}

func TestNewRequiresPollerAndBot(t *testing.T) {
	cfg := testConfig(t)
	if _, err := New(cfg, Options{Bot: &fakeDispatcher{}}, nil); err == nil {
		t.Fatal("expected error without poller")
	}
	if _, err := New(nil, Options{Poller: &scriptedPoller{}, Bot: &fakeDispatcher{}}, nil); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestSupervisorRestartsFailedPolling(t *testing.T) {
	cfg := testConfig(t)
	poller := &scriptedPoller{
		failures: 2,
		updates:  []chat.Update{{Message: &chat.Message{From: chat.User{ID: 7}, Text: "hi"}}},
	}
	dispatcher := &fakeDispatcher{}
	notifier := &recordingNotifier{}
	d, err := New(cfg, Options{Poller: poller, Bot: dispatcher, Notifier: notifier}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "update delivery", func() bool { return dispatcher.handledCount() == 1 })

	status := d.Status(context.Background())
	if status.PollRestarts != 2 {
		t.Fatalf("expected 2 restarts, got %d", status.PollRestarts)
	}
	if got := notifier.count(notifications.EventBotRestarted); got != 2 {
		t.Fatalf("expected 2 restart alerts, got %d", got)
	}
	if got := notifier.count(notifications.EventBotStarted); got != 1 {
		t.Fatalf("expected 1 startup alert, got %d", got)
	}
	d.Stop()
}

func TestStatusAPIServesOverHTTP(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.APIToken = "secret"
	dispatcher := &fakeDispatcher{sessions: session.Counts{Active: 3, Processing: 1}}
	store := testsupport.MustOpenHistory(t, cfg)
	testsupport.BeginRun(t, store, "stale-run", 5)

	d, err := New(cfg, Options{Poller: &scriptedPoller{}, Bot: dispatcher, History: store, BotUsername: "clip_bot"}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + d.APIAddress()

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", resp.StatusCode)
	}

	resp, err = http.Get(base + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.BotUsername != "clip_bot" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Sessions.Active != 3 || status.Sessions.Processing != 1 {
		t.Fatalf("unexpected session counts: %+v", status.Sessions)
	}
	if status.History.Interrupted != 1 || status.History.Running != 0 {
		t.Fatalf("expected stale run marked interrupted, got %+v", status.History)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency report")
	}
}

func TestSweepExpiresSessionsAndPrunes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Clip.HistoryRetentionDays = 7
	store := testsupport.MustOpenHistory(t, cfg)
	testsupport.BeginRun(t, store, "old-run", 9)
	if err := store.Finish(context.Background(), "old-run", history.Completion{Status: history.StatusSucceeded}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	stale := filepath.Join(cfg.Paths.StagingDir, "clip-run_old")
	testsupport.WriteFile(t, filepath.Join(stale, "section.mp4"), 64)
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	fresh := filepath.Join(cfg.Paths.StagingDir, "clip-run_new")
	if err := os.MkdirAll(fresh, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	dispatcher := &fakeDispatcher{}
	d, err := New(cfg, Options{Poller: &scriptedPoller{}, Bot: dispatcher, History: store}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.now = func() time.Time { return time.Now().AddDate(0, 0, 30) }

	d.sweep(context.Background())

	if dispatcher.expired != 1 {
		t.Fatalf("expected ExpireIdle once, got %d", dispatcher.expired)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale workspace removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh workspace kept: %v", err)
	}
	runs, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected old run pruned, got %d runs", len(runs))
	}
}

func TestWorkspacesWithoutPipelineCeiling(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeouts.Pipeline = 0

	long := filepath.Join(cfg.Paths.StagingDir, "clip-run_long")
	testsupport.WriteFile(t, filepath.Join(long, "section.mp4"), 64)
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(long, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	d, err := New(cfg, Options{Poller: &scriptedPoller{}, Bot: &fakeDispatcher{}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	d.sweep(context.Background())
	if _, err := os.Stat(long); err != nil {
		t.Fatalf("expected long-running workspace kept by periodic sweep: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := os.Stat(long); !os.IsNotExist(err) {
		t.Fatalf("expected orphaned workspace removed at startup, stat err=%v", err)
	}
}

func TestHistoryBackendFiltersByUser(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	testsupport.BeginRun(t, store, "a", 1)
	testsupport.BeginRun(t, store, "b", 2)

	d, err := New(cfg, Options{Poller: &scriptedPoller{}, Bot: &fakeDispatcher{}, History: store}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runs, err := d.History(context.Background(), api.HistoryQuery{UserID: 2, Limit: 10})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "b" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	all, err := d.History(context.Background(), api.HistoryQuery{Limit: 10})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(all))
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notifications.NtfyTopic = ""
	sent, message, err := TestNotification(context.Background(), cfg)
	if err != nil || sent {
		t.Fatalf("expected skip without topic, got sent=%v err=%v", sent, err)
	}
	if message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", message)
	}
}
