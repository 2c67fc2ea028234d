package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizeClip()
	c.normalizeEncode()
	c.normalizeTools()
	c.normalizeSessions()
	c.normalizeMessages()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func lookupEnv(names ...string) (string, bool) {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if value, ok := lookupEnv("CLIPBOT_API_TOKEN"); ok {
		c.Paths.APIToken = value
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if value, ok := lookupEnv("CLIPBOT_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"); ok {
		c.Telegram.Token = value
	}
	c.Telegram.APIEndpoint = strings.TrimSpace(c.Telegram.APIEndpoint)
	c.Telegram.SubscriptionChannel = strings.TrimSpace(c.Telegram.SubscriptionChannel)
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = defaultPollTimeout
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultRequestTimeout
	}
	if c.Telegram.RestartBackoff <= 0 {
		c.Telegram.RestartBackoff = defaultRestartBackoff
	}
}

func (c *Config) normalizeClip() {
	hosts := make([]string, 0, len(c.Clip.AllowedHosts))
	seen := make(map[string]struct{}, len(c.Clip.AllowedHosts))
	for _, host := range c.Clip.AllowedHosts {
		normalized := strings.ToLower(strings.TrimSpace(host))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		hosts = append(hosts, normalized)
	}
	c.Clip.AllowedHosts = hosts
	if c.Clip.HistoryRetentionDays < 0 {
		c.Clip.HistoryRetentionDays = 0
	}
}

func (c *Config) normalizeEncode() {
	c.Encode.Dither = strings.TrimSpace(c.Encode.Dither)
	if c.Encode.Dither == "" {
		c.Encode.Dither = defaultDither
	}
	if c.Encode.LossyLevel <= 0 {
		c.Encode.LossyLevel = defaultLossyLevel
	}
}

func (c *Config) normalizeTools() {
	trimOr := func(value, fallback string) string {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
		return fallback
	}
	c.Tools.YtDLP = trimOr(c.Tools.YtDLP, "yt-dlp")
	c.Tools.FFmpeg = trimOr(c.Tools.FFmpeg, "ffmpeg")
	c.Tools.FFprobe = trimOr(c.Tools.FFprobe, "ffprobe")
	c.Tools.Gifsicle = trimOr(c.Tools.Gifsicle, "gifsicle")
	c.Tools.YtDLPFormat = strings.TrimSpace(c.Tools.YtDLPFormat)
}

func (c *Config) normalizeSessions() {
	if c.Sessions.IdleTTL < 0 {
		c.Sessions.IdleTTL = 0
	}
	if c.Sessions.SweepInterval <= 0 {
		c.Sessions.SweepInterval = defaultSweepInterval
	}
	if c.Sessions.ConfirmationDelay < 0 {
		c.Sessions.ConfirmationDelay = 0
	}
}

func (c *Config) normalizeMessages() {
	c.Messages.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Messages.DefaultLanguage))
	if c.Messages.DefaultLanguage == "" {
		c.Messages.DefaultLanguage = defaultLanguage
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if value, ok := lookupEnv("CLIPBOT_NTFY_TOPIC"); ok {
		c.Notifications.NtfyTopic = value
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		c.Notifications.DedupWindowSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
