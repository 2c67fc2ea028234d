package config

const (
	defaultStagingDir           = "~/.local/share/clipbot/staging"
	defaultStateDir             = "~/.local/share/clipbot"
	defaultLogDir               = "~/.local/share/clipbot/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultAPIBind              = "127.0.0.1:7489"
	defaultPollTimeout          = 30
	defaultRequestTimeout       = 60
	defaultRestartBackoff       = 15
	defaultMaxDuration          = 15
	defaultInitialLength        = 16
	defaultHistoryRetentionDays = 30
	defaultFrameRate            = 15
	defaultWidth                = 480
	defaultPaletteSize          = 128
	defaultDither               = "bayer:bayer_scale=3"
	defaultLossyLevel           = 80
	defaultIdleTTLMinutes       = 30
	defaultSweepInterval        = 60
	defaultConfirmationDelayMS  = 1000
	defaultLanguage             = "en"
	defaultNotifyTimeout        = 10
	defaultNotifyDedupWindow    = 300
)

var defaultAllowedHosts = []string{
	"youtube.com",
	"www.youtube.com",
	"m.youtube.com",
	"music.youtube.com",
	"youtu.be",
	"youtube-nocookie.com",
	"www.youtube-nocookie.com",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Telegram: Telegram{
			PollTimeout:    defaultPollTimeout,
			RequestTimeout: defaultRequestTimeout,
			RestartBackoff: defaultRestartBackoff,
		},
		Paths: Paths{
			StagingDir: defaultStagingDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Clip: Clip{
			MaxDuration:          defaultMaxDuration,
			InitialLength:        defaultInitialLength,
			AllowedHosts:         append([]string(nil), defaultAllowedHosts...),
			HistoryRetentionDays: defaultHistoryRetentionDays,
		},
		Encode: Encode{
			LocalTranscode: true,
			FrameRate:      defaultFrameRate,
			Width:          defaultWidth,
			PaletteSize:    defaultPaletteSize,
			Dither:         defaultDither,
			Optimize:       true,
			LossyLevel:     defaultLossyLevel,
		},
		Tools: Tools{
			YtDLP:    "yt-dlp",
			FFmpeg:   "ffmpeg",
			FFprobe:  "ffprobe",
			Gifsicle: "gifsicle",
		},
		Timeouts: Timeouts{
			Metadata:  30,
			Thumbnail: 10,
			Fetch:     180,
			Transcode: 120,
			Optimize:  60,
			Deliver:   120,
			Pipeline:  600,
		},
		Sessions: Sessions{
			IdleTTL:           defaultIdleTTLMinutes,
			SweepInterval:     defaultSweepInterval,
			ConfirmationDelay: defaultConfirmationDelayMS,
		},
		Messages: Messages{
			DefaultLanguage:    defaultLanguage,
			FollowUserLanguage: true,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyTimeout,
			ClipFailures:       true,
			Restarts:           true,
			DedupWindowSeconds: defaultNotifyDedupWindow,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
