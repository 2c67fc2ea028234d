package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"clipbot/internal/config"
)

const userAgent = "clipbot/0.1.0"

// Event names an operator-facing occurrence.
type Event string

const (
	EventBotStarted   Event = "bot_started"
	EventBotRestarted Event = "bot_restarted"
	EventClipFailed   Event = "clip_failed"
	EventError        Event = "error"
	EventTest         Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes operator alerts.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		clipFailures: cfg.Notifications.ClipFailures,
		restarts:     cfg.Notifications.Restarts,
		dedupWindow:  time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		lastSent:     make(map[string]time.Time),
		now:          time.Now,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	clipFailures bool
	restarts     bool
	dedupWindow  time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil {
		return nil
	}
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	if n.duplicate(msg) {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBotStarted:
		return message{
			title: "clipbot - Started",
			body:  fmt.Sprintf("🤖 Bot @%s is polling for updates", payloadString(payload, "username")),
			tags:  []string{"clipbot", "daemon", "started"},
		}, true
	case EventBotRestarted:
		if !n.restarts {
			return message{}, false
		}
		body := fmt.Sprintf("🔁 Poll loop restarted (attempt %d)", payloadInt(payload, "attempt"))
		if cause := payloadString(payload, "error"); cause != "" {
			body += ": " + cause
		}
		return message{
			title:    "clipbot - Restarted",
			body:     body,
			tags:     []string{"clipbot", "daemon", "restart"},
			priority: "high",
		}, true
	case EventClipFailed:
		if !n.clipFailures {
			return message{}, false
		}
		var b strings.Builder
		b.WriteString("❌ Clip failed")
		if stage := payloadString(payload, "stage"); stage != "" {
			b.WriteString(" during ")
			b.WriteString(stage)
		}
		if kind := payloadString(payload, "kind"); kind != "" {
			fmt.Fprintf(&b, " (%s)", kind)
		}
		if cause := payloadString(payload, "error"); cause != "" {
			b.WriteString(": ")
			b.WriteString(cause)
		}
		if url := payloadString(payload, "url"); url != "" {
			b.WriteString("\nSource: ")
			b.WriteString(url)
		}
		return message{
			title: "clipbot - Clip Failed",
			body:  b.String(),
			tags:  []string{"clipbot", "clip", "failed"},
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if cause := payloadString(payload, "error"); cause != "" {
			b.WriteString(cause)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "clipbot - Error",
			body:     b.String(),
			tags:     []string{"clipbot", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "clipbot - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"clipbot", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

// duplicate reports whether an identical message went out inside the dedup
// window, recording the send otherwise.
func (n *ntfyService) duplicate(msg message) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	key := msg.title + "\x00" + msg.body
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.dedupWindow {
		return true
	}
	n.lastSent[key] = now
	for k, sent := range n.lastSent {
		if now.Sub(sent) >= n.dedupWindow {
			delete(n.lastSent, k)
		}
	}
	return false
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(payload Payload, key string) string {
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func payloadInt(payload Payload, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
