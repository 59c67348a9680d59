package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"clipguard/internal/services"
)

const (
	// DefaultBinary is the executable looked up on PATH.
	DefaultBinary = "yt-dlp"
	// DefaultFormat selects the best single-file mp4 rendition.
	DefaultFormat = "best[ext=mp4]"
	// DefaultBaseName is the file name, without extension, of every download.
	DefaultBaseName = "media"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Config captures yt-dlp invocation settings.
type Config struct {
	Binary         string
	Format         string
	UserAgent      string
	SkipCertCheck  bool
	TimeoutSeconds int
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	cfg     Config
	timeout time.Duration
	exec    Executor
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// New constructs a yt-dlp client.
func New(cfg Config, opts ...Option) *Client {
	cfg.Binary = strings.TrimSpace(cfg.Binary)
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	cfg.Format = strings.TrimSpace(cfg.Format)
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	client := &Client{
		cfg:     cfg,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Request describes one download.
type Request struct {
	URL        string
	OutputDir  string
	CookieFile string
}

// Download fetches the URL into <OutputDir>/media.mp4 and returns that path.
func (c *Client) Download(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", services.Wrap(services.ErrValidation, "download", "yt-dlp", "url required", nil)
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return "", services.Wrap(services.ErrValidation, "download", "yt-dlp", "output directory required", nil)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "prepare output", req.OutputDir, err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	_, stderr, err := c.exec.Run(runCtx, c.cfg.Binary, c.buildArgs(req))
	if err != nil {
		detail := summarizeStderr(stderr)
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return "", services.Wrap(services.ErrTimeout, "download", "yt-dlp", fmt.Sprintf("exceeded %s", c.timeout), err)
		case ctx.Err() != nil:
			return "", ctx.Err()
		case isTransient(detail):
			return "", services.Wrap(services.ErrTransient, "download", "yt-dlp", detail, err)
		default:
			return "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp", detail, err)
		}
	}

	path := OutputPath(req.OutputDir)
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "download", "locate output", path, err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrNotFound, "download", "locate output", "empty file "+path, nil)
	}
	return path, nil
}

// Version returns the installed yt-dlp version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, stderr, err := c.exec.Run(ctx, c.cfg.Binary, []string{"--version"})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp version", summarizeStderr(stderr), err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// OutputPath is where Download leaves the media file for dir.
func OutputPath(dir string) string {
	return filepath.Join(dir, DefaultBaseName+".mp4")
}

func (c *Client) buildArgs(req Request) []string {
	args := []string{
		"--format", c.cfg.Format,
		"--output", filepath.Join(req.OutputDir, DefaultBaseName+".%(ext)s"),
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"--no-warnings",
	}
	if c.cfg.SkipCertCheck {
		args = append(args, "--no-check-certificates")
	}
	if ua := strings.TrimSpace(c.cfg.UserAgent); ua != "" {
		args = append(args, "--add-header", "User-Agent:"+ua)
	}
	if cookie := strings.TrimSpace(req.CookieFile); cookie != "" {
		args = append(args, "--cookies", cookie)
	}
	return append(args, "--", req.URL)
}

var transientMarkers = []string{
	"timed out",
	"timeout",
	"connection reset",
	"temporary failure",
	"http error 500",
	"http error 502",
	"http error 503",
	"http error 504",
	"http error 429",
	"remote end closed connection",
}

func isTransient(detail string) bool {
	lower := strings.ToLower(detail)
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func summarizeStderr(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
