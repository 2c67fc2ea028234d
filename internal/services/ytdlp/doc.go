// Package ytdlp wraps the yt-dlp command line tool as the bot's video source:
// metadata lookup and keyframe-aligned range extraction.
package ytdlp
