// Package ytdlp drives the yt-dlp CLI to fetch a single media file from a
// public video URL.
//
// The client always asks for one mp4 rendition, writes it to a caller-chosen
// directory under a fixed base name, and reports failures tagged with the
// services error markers. Failures that look temporary (timeouts, 5xx, reset
// connections) carry services.ErrTransient so callers can retry them.
package ytdlp
