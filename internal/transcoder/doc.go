// Package transcoder wraps the external ffmpeg/ffprobe binaries. All media
// manipulation (audio extraction, duration probing, chunk cutting, subtitle
// burn-in) goes through it; a nonzero exit is surfaced as an error with the
// tool's stderr attached.
package transcoder
