package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
)

var (
	frameRateOptions   = []int{10, 15, 20, 25}
	widthOptions       = []int{360, 480, 720, 1080}
	paletteSizeOptions = []int{64, 128, 256}
)

// Validate ensures the configuration is usable. The bot token is checked
// separately by RequireToken so offline commands work without it.
func (c *Config) Validate() error {
	if err := c.validateClip(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMessages(); err != nil {
		return err
	}
	return nil
}

// RequireToken reports a configuration error when no bot token is set.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.Telegram.Token) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/clipbot/config.toml"
	}
	return fmt.Errorf("telegram.token is required. Set CLIPBOT_TELEGRAM_TOKEN (or a .env file) or edit %s (create with 'clipbot config init')", defaultPath)
}

func (c *Config) validateClip() error {
	if c.Clip.MaxDuration <= 0 {
		return errors.New("clip.max_duration must be positive (seconds)")
	}
	if c.Clip.InitialLength <= 0 {
		return errors.New("clip.initial_length must be positive (seconds)")
	}
	if len(c.Clip.AllowedHosts) == 0 {
		return errors.New("clip.allowed_hosts must include at least one host")
	}
	return nil
}

func (c *Config) validateEncode() error {
	if !slices.Contains(frameRateOptions, c.Encode.FrameRate) {
		return fmt.Errorf("encode.frame_rate must be one of %v", frameRateOptions)
	}
	if !slices.Contains(widthOptions, c.Encode.Width) {
		return fmt.Errorf("encode.width must be one of %v", widthOptions)
	}
	if !slices.Contains(paletteSizeOptions, c.Encode.PaletteSize) {
		return fmt.Errorf("encode.palette_size must be one of %v", paletteSizeOptions)
	}
	if c.Encode.LossyLevel > 200 {
		return errors.New("encode.lossy_level must be between 1 and 200")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"timeouts.metadata":             c.Timeouts.Metadata,
		"timeouts.thumbnail":            c.Timeouts.Thumbnail,
		"timeouts.fetch":                c.Timeouts.Fetch,
		"timeouts.transcode":            c.Timeouts.Transcode,
		"timeouts.optimize":             c.Timeouts.Optimize,
		"timeouts.deliver":              c.Timeouts.Deliver,
		"timeouts.pipeline":             c.Timeouts.Pipeline,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"telegram.request_timeout":      c.Telegram.RequestTimeout,
		"sessions.sweep_interval":       c.Sessions.SweepInterval,
	})
}

func (c *Config) validatePaths() error {
	if c.Paths.APIBind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind: %w", err)
	}
	return nil
}

func (c *Config) validateMessages() error {
	switch c.Messages.DefaultLanguage {
	case "en", "ru":
		return nil
	default:
		return fmt.Errorf("messages.default_language must be \"en\" or \"ru\", got %q", c.Messages.DefaultLanguage)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
