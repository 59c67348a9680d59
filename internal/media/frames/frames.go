// Package frames probes videos and captures single resized frames with
// ffprobe and ffmpeg.
package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"clipguard/internal/media/ffprobe"
)

// VideoInfo summarizes the primary video stream. Width and Height are the
// displayed dimensions, with rotation metadata already applied.
type VideoInfo struct {
	FrameCount   int
	Width        int
	Height       int
	Duration     float64
	AudioStreams int
	SizeBytes    int64
}

// Frame is a captured image on disk plus its decoded bytes.
type Frame struct {
	Path   string
	Image  []byte
	Width  int
	Height int
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Source reads frames from local media files.
type Source struct {
	ffprobe string
	ffmpeg  string
	run     Runner
}

// Option configures a Source.
type Option func(*Source)

// WithRunner overrides command execution (for testing).
func WithRunner(run Runner) Option {
	return func(s *Source) {
		if run != nil {
			s.run = run
		}
	}
}

// NewSource builds a Source using the given binaries, defaulting to the names
// on PATH.
func NewSource(ffprobeBinary, ffmpegBinary string, opts ...Option) *Source {
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	src := &Source{ffprobe: ffprobeBinary, ffmpeg: ffmpegBinary, run: runCommand}
	for _, opt := range opts {
		opt(src)
	}
	return src
}

// Probe reports frame count and dimensions of the first video stream.
func (s *Source) Probe(ctx context.Context, path string) (VideoInfo, error) {
	out, err := s.run(ctx, s.ffprobe, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}
	result, err := ffprobe.Parse(out)
	if err != nil {
		return VideoInfo{}, err
	}
	stream, ok := result.VideoStream()
	if !ok {
		return VideoInfo{}, errors.New("probe: no video stream")
	}
	width, height := stream.DisplaySize()
	info := VideoInfo{
		Width:        width,
		Height:       height,
		Duration:     result.DurationSeconds(),
		AudioStreams: result.AudioStreamCount(),
		SizeBytes:    result.SizeBytes(),
	}
	info.FrameCount = stream.FrameCount(info.Duration)
	if info.FrameCount <= 0 {
		return info, errors.New("probe: frame count unavailable")
	}
	return info, nil
}

// Capture extracts frame index from path, scales it to width x height and
// writes it as JPEG to dest.
func (s *Source) Capture(ctx context.Context, path string, index, width, height int, dest string) (Frame, error) {
	if index < 0 {
		return Frame{}, fmt.Errorf("capture: invalid frame index %d", index)
	}
	if width <= 0 || height <= 0 {
		return Frame{}, fmt.Errorf("capture: invalid size %dx%d", width, height)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Frame{}, fmt.Errorf("capture: ensure frame dir: %w", err)
	}

	filter := fmt.Sprintf(`select=eq(n\,%d),scale=%d:%d`, index, width, height)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-vf", filter,
		"-vsync", "0",
		"-frames:v", "1",
		"-q:v", "2",
		dest,
	}
	if _, err := s.run(ctx, s.ffmpeg, args...); err != nil {
		return Frame{}, fmt.Errorf("capture frame %d: %w", index, err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return Frame{}, fmt.Errorf("capture frame %d: read output: %w", index, err)
	}
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("capture frame %d: empty output", index)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("capture frame %d: decode: %w", index, err)
	}
	return Frame{Path: dest, Image: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// FileName is the on-disk name used for the i-th sampled frame.
func FileName(i int) string {
	return "frame_" + strconv.Itoa(i) + ".jpg"
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
