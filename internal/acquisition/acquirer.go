package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"clipguard/internal/logging"
	"clipguard/internal/moderation"
	"clipguard/internal/services"
	"clipguard/internal/services/ytdlp"
)

// ErrUnsupportedURL marks submissions that are not absolute http(s) URLs.
var ErrUnsupportedURL = errors.New("unsupported url")

// FailureMessage is the user-facing message for any acquisition failure.
const FailureMessage = "Falha no download"

const defaultRetryBase = time.Second

// Downloader fetches a URL into a directory and returns the local file path.
type Downloader interface {
	Download(ctx context.Context, req ytdlp.Request) (string, error)
}

// AcquisitionError is returned for every acquisition failure.
type AcquisitionError struct {
	URL      string
	Platform moderation.Platform
	Err      error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire %s (%s): %v", e.URL, e.Platform, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Config tunes an Acquirer.
type Config struct {
	CookiesDir string
	Retries    int
}

// Acquirer resolves URLs to local media files.
type Acquirer struct {
	downloader Downloader
	cookiesDir string
	retries    int
	retryBase  time.Duration
	logger     *slog.Logger
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Acquirer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRetryBase sets the first Fibonacci backoff step.
func WithRetryBase(base time.Duration) Option {
	return func(a *Acquirer) {
		a.retryBase = base
	}
}

// New constructs an Acquirer around downloader.
func New(downloader Downloader, cfg Config, opts ...Option) *Acquirer {
	a := &Acquirer{
		downloader: downloader,
		cookiesDir: strings.TrimSpace(cfg.CookiesDir),
		retries:    max(cfg.Retries, 0),
		retryBase:  defaultRetryBase,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Acquire downloads rawURL into dir.
func (a *Acquirer) Acquire(ctx context.Context, rawURL, dir string) (moderation.AcquiredMedia, error) {
	rawURL = strings.TrimSpace(rawURL)
	platform := DetectPlatform(rawURL)
	fail := func(err error) (moderation.AcquiredMedia, error) {
		return moderation.AcquiredMedia{}, &AcquisitionError{URL: rawURL, Platform: platform, Err: err}
	}

	if err := ValidateURL(rawURL); err != nil {
		return fail(err)
	}
	if a.downloader == nil {
		return fail(services.Wrap(services.ErrConfiguration, "download", "acquire", "no downloader configured", nil))
	}

	ctx = services.WithPlatform(ctx, string(platform))
	logger := logging.WithContext(ctx, a.logger)

	req := ytdlp.Request{URL: rawURL, OutputDir: dir, CookieFile: a.cookieFile(logger, platform)}

	var (
		path     string
		attempts int
	)
	err := retry.Do(ctx, a.backoff(), func(ctx context.Context) error {
		attempts++
		var err error
		path, err = a.downloader.Download(ctx, req)
		if err == nil {
			return nil
		}
		if errors.Is(err, services.ErrTransient) && ctx.Err() == nil {
			logger.Info("download attempt failed; retrying",
				logging.String(logging.FieldEventType, "download_retry"),
				logging.Int("attempt", attempts),
				logging.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fail(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(services.Wrap(services.ErrNotFound, "download", "verify output", path, err))
	}
	if info.IsDir() || info.Size() == 0 {
		return fail(services.Wrap(services.ErrNotFound, "download", "verify output", "empty media "+path, nil))
	}

	logger.Info("media acquired",
		logging.String(logging.FieldEventType, "media_acquired"),
		logging.String("path", path),
		logging.Int("attempts", attempts),
		logging.Int("size_bytes", int(info.Size())),
	)
	return moderation.AcquiredMedia{LocalPath: path, Platform: platform}, nil
}

func (a *Acquirer) backoff() retry.Backoff {
	if a.retryBase <= 0 {
		return retry.WithMaxRetries(uint64(a.retries), retry.BackoffFunc(func() (time.Duration, bool) {
			return 0, false
		}))
	}
	return retry.WithMaxRetries(uint64(a.retries), retry.NewFibonacci(a.retryBase))
}

// cookieFile returns the cookie bundle for platform, or "" when the platform
// needs none or the bundle is missing.
func (a *Acquirer) cookieFile(logger *slog.Logger, platform moderation.Platform) string {
	path, ok := CookiePath(a.cookiesDir, platform)
	if !ok {
		if _, needs := CookieFileName(platform); needs {
			logging.WarnWithContext(logger, "cookie directory not configured; downloading without authentication", "cookies_missing",
				logging.String(logging.FieldErrorHint, "set paths.cookies_dir"),
				logging.String(logging.FieldImpact, "private or age-gated media may fail to download"),
			)
		}
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		logging.WarnWithContext(logger, "cookie bundle not found; downloading without authentication", "cookies_missing",
			logging.String("cookie_file", path),
			logging.String(logging.FieldErrorHint, "export browser cookies to "+path),
			logging.String(logging.FieldImpact, "private or age-gated media may fail to download"),
		)
		return ""
	}
	return path
}

// ValidateURL accepts only absolute http(s) URLs with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty url", ErrUnsupportedURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsupportedURL)
	}
	return nil
}
