package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"clipbot/internal/chat"
	"clipbot/internal/logging"
)

// Gate decides whether a user may use the bot.
type Gate interface {
	Allowed(ctx context.Context, userID int64) bool
	// Channel names what the user must join; empty for an open gate.
	Channel() string
}

type openGate struct{}

func (openGate) Allowed(context.Context, int64) bool { return true }

func (openGate) Channel() string { return "" }

// ChannelGate admits members of a channel. A failed membership lookup counts
// as not a member.
type ChannelGate struct {
	transport chat.Transport
	channel   string
	timeout   time.Duration
	logger    *slog.Logger
}

var memberStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// NewGate returns a ChannelGate for channel, or an open gate when channel is blank.
func NewGate(transport chat.Transport, channel string, timeout time.Duration, logger *slog.Logger) Gate {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return openGate{}
	}
	return &ChannelGate{
		transport: transport,
		channel:   channel,
		timeout:   timeout,
		logger:    logging.NewComponentLogger(logger, "gate"),
	}
}

// Channel returns the configured channel handle.
func (g *ChannelGate) Channel() string {
	return g.channel
}

// Allowed asks the transport for the user's membership status.
func (g *ChannelGate) Allowed(ctx context.Context, userID int64) bool {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	status, err := g.transport.MembershipStatus(ctx, g.channel, userID)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, g.logger), "subscription check failed", "subscription_check_failed",
			logging.Error(err),
			logging.String("channel", g.channel),
			logging.String(logging.FieldErrorHint, "ensure the bot is an administrator of the channel"),
			logging.String(logging.FieldImpact, "user treated as not subscribed"),
		)
		return false
	}
	return memberStatuses[strings.ToLower(strings.TrimSpace(status))]
}
