package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipbot/internal/bot"
	"clipbot/internal/config"
	"clipbot/internal/daemon"
	"clipbot/internal/deps"
	"clipbot/internal/history"
	"clipbot/internal/logging"
	"clipbot/internal/media/ffprobe"
	"clipbot/internal/notifications"
	"clipbot/internal/pipeline"
	"clipbot/internal/services/ffmpeg"
	"clipbot/internal/services/gifsicle"
	"clipbot/internal/services/ytdlp"
	"clipbot/internal/session"
	"clipbot/internal/telegram"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	logger, logPath, err := logging.NewDaemonLogger(cfg, time.Now())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update clipbot.log link: %v\n", err)
	}

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = fmt.Sprintf("%s (%s)", m.Name, m.Detail)
		}
		return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
	}

	source, orchestrator, err := buildPipeline(cfg, statuses, logger)
	if err != nil {
		return err
	}

	client, err := telegram.New(telegram.Options{
		Token:          cfg.Telegram.Token,
		APIEndpoint:    cfg.Telegram.APIEndpoint,
		RequestTimeout: config.Seconds(cfg.Telegram.RequestTimeout),
		PollTimeout:    config.Seconds(cfg.Telegram.PollTimeout),
		UploadTimeout:  config.Seconds(cfg.Timeouts.Deliver),
		Debug:          cfg.Telegram.Debug,
	}, logger)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	notifier := notifications.NewService(cfg)
	b, err := bot.New(cfg, bot.Dependencies{
		Transport:  client,
		Sessions:   session.NewStore(),
		Source:     source,
		Runner:     orchestrator,
		History:    store,
		Notifier:   notifier,
		Thumbnails: bot.NewHTTPThumbnails(config.Seconds(cfg.Timeouts.Thumbnail)),
		Gate:       bot.NewGate(client, cfg.Telegram.SubscriptionChannel, config.Seconds(cfg.Telegram.RequestTimeout), logger),
	}, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create bot: %w", err)
	}

	d, err := daemon.New(cfg, daemon.Options{
		Poller:      client,
		Bot:         b,
		History:     store,
		Notifier:    notifier,
		BotUsername: client.Username(),
		LogPath:     logPath,
	}, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("clipbot shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// buildPipeline wires the external tools into an orchestrator. gifsicle is
// dropped with a warning when it is missing.
func buildPipeline(cfg *config.Config, statuses []deps.Status, logger *slog.Logger) (*ytdlp.Client, *pipeline.Orchestrator, error) {
	source, err := ytdlp.New(cfg.Tools.YtDLP,
		ytdlp.WithFormat(cfg.Tools.YtDLPFormat),
		ytdlp.WithExtraArgs(cfg.Tools.YtDLPArgs),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("configure yt-dlp: %w", err)
	}

	var renderer pipeline.Renderer
	var prober pipeline.Prober
	if cfg.Encode.LocalTranscode {
		r, err := ffmpeg.New(cfg.Tools.FFmpeg, ffmpeg.WithDither(cfg.Encode.Dither))
		if err != nil {
			return nil, nil, fmt.Errorf("configure ffmpeg: %w", err)
		}
		renderer = r
		prober = ffprobe.New(cfg.Tools.FFprobe, nil)
	}

	var optimizer pipeline.Optimizer
	if cfg.Encode.Optimize {
		if toolAvailable(statuses, "gifsicle") {
			o, err := gifsicle.New(cfg.Tools.Gifsicle, cfg.Encode.LossyLevel)
			if err != nil {
				return nil, nil, fmt.Errorf("configure gifsicle: %w", err)
			}
			optimizer = o
		} else {
			logging.WarnWithContext(logger, "gifsicle unavailable; GIFs will not be optimized", "optimizer_disabled",
				logging.String("command", cfg.Tools.Gifsicle),
				logging.String(logging.FieldErrorHint, "install gifsicle or set encode.optimize = false"),
				logging.String(logging.FieldImpact, "larger GIF uploads"),
			)
		}
	}

	orchestrator, err := pipeline.New(pipeline.Options{
		StagingDir:     cfg.Paths.StagingDir,
		LocalTranscode: cfg.Encode.LocalTranscode,
		Timeouts: pipeline.Timeouts{
			Fetch:     config.Seconds(cfg.Timeouts.Fetch),
			Transcode: config.Seconds(cfg.Timeouts.Transcode),
			Optimize:  config.Seconds(cfg.Timeouts.Optimize),
			Deliver:   config.Seconds(cfg.Timeouts.Deliver),
			Total:     config.Seconds(cfg.Timeouts.Pipeline),
		},
	}, source, renderer, optimizer, prober, logger)
	if err != nil {
		return nil, nil, err
	}
	return source, orchestrator, nil
}

func toolAvailable(statuses []deps.Status, name string) bool {
	for _, status := range statuses {
		if status.Name == name {
			return status.Available
		}
	}
	return false
}

// ensureCurrentLogPointer points <logDir>/clipbot.log at the active log file.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "clipbot.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
