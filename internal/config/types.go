package config

// Telegram contains bot API connection settings.
type Telegram struct {
	Token               string `toml:"token"`
	APIEndpoint         string `toml:"api_endpoint"`
	PollTimeout         int    `toml:"poll_timeout"`
	RequestTimeout      int    `toml:"request_timeout"`
	RestartBackoff      int    `toml:"restart_backoff"`
	SubscriptionChannel string `toml:"subscription_channel"`
	Debug               bool   `toml:"debug"`
}

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Clip contains the limits users select ranges within.
type Clip struct {
	MaxDuration          int      `toml:"max_duration"`
	InitialLength        int      `toml:"initial_length"`
	AllowedHosts         []string `toml:"allowed_hosts"`
	HistoryRetentionDays int      `toml:"history_retention_days"`
}

// Encode contains rendering defaults and pipeline shape.
type Encode struct {
	LocalTranscode bool   `toml:"local_transcode"`
	FrameRate      int    `toml:"frame_rate"`
	Width          int    `toml:"width"`
	PaletteSize    int    `toml:"palette_size"`
	Dither         string `toml:"dither"`
	Optimize       bool   `toml:"optimize"`
	LossyLevel     int    `toml:"lossy_level"`
}

// Tools names the external binaries.
type Tools struct {
	YtDLP       string   `toml:"ytdlp"`
	YtDLPFormat string   `toml:"ytdlp_format"`
	YtDLPArgs   []string `toml:"ytdlp_args"`
	FFmpeg      string   `toml:"ffmpeg"`
	FFprobe     string   `toml:"ffprobe"`
	Gifsicle    string   `toml:"gifsicle"`
}

// Timeouts bounds every external call, in seconds.
type Timeouts struct {
	Metadata  int `toml:"metadata"`
	Thumbnail int `toml:"thumbnail"`
	Fetch     int `toml:"fetch"`
	Transcode int `toml:"transcode"`
	Optimize  int `toml:"optimize"`
	Deliver   int `toml:"deliver"`
	Pipeline  int `toml:"pipeline"`
}

// Sessions contains dialogue lifetime settings.
type Sessions struct {
	IdleTTL           int `toml:"idle_ttl"`
	SweepInterval     int `toml:"sweep_interval"`
	ConfirmationDelay int `toml:"confirmation_delay_ms"`
}

// Messages selects the user-facing language.
type Messages struct {
	DefaultLanguage    string `toml:"default_language"`
	FollowUserLanguage bool   `toml:"follow_user_language"`
}

// Notifications contains configuration for ntfy operator alerts.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	ClipFailures       bool   `toml:"clip_failures"`
	Restarts           bool   `toml:"restarts"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for clipbot.
//
// Configuration sections by subsystem:
//   - Telegram: bot token, polling, supervisor backoff, subscription gate
//   - Paths: staging, state, and log directories plus the status API bind
//   - Clip: range limits and accepted source hosts
//   - Encode: default render settings and pipeline shape
//   - Tools: external binaries (yt-dlp, ffmpeg, ffprobe, gifsicle)
//   - Timeouts: per-call and whole-run deadlines
//   - Sessions: idle expiry and confirmation timing
//   - Messages: language selection
//   - Notifications: ntfy operator alerts
//   - Logging: log format, level, and retention
type Config struct {
	Telegram      Telegram      `toml:"telegram"`
	Paths         Paths         `toml:"paths"`
	Clip          Clip          `toml:"clip"`
	Encode        Encode        `toml:"encode"`
	Tools         Tools         `toml:"tools"`
	Timeouts      Timeouts      `toml:"timeouts"`
	Sessions      Sessions      `toml:"sessions"`
	Messages      Messages      `toml:"messages"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}
