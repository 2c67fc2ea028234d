package deps

import "clipbot/internal/config"

// Requirements lists the external tools the configured pipeline shape needs.
// yt-dlp cuts sections through ffmpeg, so both are always required. gifsicle
// is never required: without it GIFs are delivered unoptimized.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YtDLP,
			Description: "Fetches metadata and downloads clip sections",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Cuts sections and renders GIFs",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Reads clip dimensions before rendering",
			Optional:    !cfg.Encode.LocalTranscode,
		},
		{
			Name:        "gifsicle",
			Command:     cfg.Tools.Gifsicle,
			Description: "Shrinks rendered GIFs",
			Optional:    true,
		},
	}
}

// MissingRequired returns the required dependencies that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
