// Package ffprobe reads the dimensions, frame rate and duration of a local
// video through ffprobe. The pipeline calls VideoWidth when the remote source
// did not report a width, so the render never upscales.
package ffprobe
