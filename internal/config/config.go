package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir    string `toml:"work_dir"`
	LogDir     string `toml:"log_dir"`
	CookiesDir string `toml:"cookies_dir"`
}

// Download contains configuration for media acquisition through yt-dlp.
type Download struct {
	Binary         string `toml:"binary"`
	Format         string `toml:"format"`
	UserAgent      string `toml:"user_agent"`
	SkipCertCheck  bool   `toml:"skip_cert_check"`
	Retries        int    `toml:"retries"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription contains configuration for the WhisperX speech-to-text stage.
type Transcription struct {
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	VADMethod      string `toml:"vad_method"`
	HFToken        string `toml:"hf_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Vision contains configuration for the frame captioning model.
type Vision struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	FrameWidth     int     `toml:"frame_width"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Judge contains the chat-completion settings for the adjudication model.
type Judge struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Rules points at the moderation rule set. An empty path selects the
// built-in competition rules.
type Rules struct {
	Path string `toml:"path"`
}

// Pipeline contains orchestration settings.
type Pipeline struct {
	ParallelExtraction bool `toml:"parallel_extraction"`
}

// API contains configuration for the HTTP request-handling layer.
type API struct {
	Bind               string   `toml:"bind"`
	MaxConcurrent      int      `toml:"max_concurrent"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
	CORSOrigins        []string `toml:"cors_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipguard.
//
// Configuration sections by subsystem:
//   - Paths: working directory, logs, and cookie bundles
//   - Download: yt-dlp acquisition settings
//   - Transcription: WhisperX speech-to-text settings
//   - Vision: frame captioning model settings
//   - Judge: adjudication model settings
//   - Rules: moderation rule set location
//   - Pipeline: orchestration toggles
//   - API: HTTP server settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Download      Download      `toml:"download"`
	Transcription Transcription `toml:"transcription"`
	Vision        Vision        `toml:"vision"`
	Judge         Judge         `toml:"judge"`
	Rules         Rules         `toml:"rules"`
	Pipeline      Pipeline      `toml:"pipeline"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipguard.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio and frame extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// DownloadTimeout returns the wall-clock bound for one download attempt.
func (c *Config) DownloadTimeout() time.Duration {
	return seconds(c.Download.TimeoutSeconds)
}

// TranscriptionTimeout returns the wall-clock bound for one transcription.
func (c *Config) TranscriptionTimeout() time.Duration {
	return seconds(c.Transcription.TimeoutSeconds)
}

// VisionTimeout returns the wall-clock bound for one frame caption call.
func (c *Config) VisionTimeout() time.Duration {
	return seconds(c.Vision.TimeoutSeconds)
}

// JudgeTimeout returns the wall-clock bound for the adjudication call.
func (c *Config) JudgeTimeout() time.Duration {
	return seconds(c.Judge.TimeoutSeconds)
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
