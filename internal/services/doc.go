// Package services defines shared utilities consumed by the dialogue handlers,
// the clip pipeline, and the external tool integrations beneath it.
//
// Key responsibilities:
//   - Context helpers that stamp user IDs, pipeline run IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures into
//     the input/range/service/process/delivery/transport taxonomy.
//   - ProcessError, which carries the exit status and stderr tail of a failed
//     external tool.
//
// Subpackages hold the concrete tool adapters (yt-dlp, ffmpeg, gifsicle) and the
// shared command runner they execute through.
package services
