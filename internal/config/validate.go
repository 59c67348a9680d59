package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateJudge(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDownload() error {
	if c.Download.Retries < 0 {
		return errors.New("download.retries must be >= 0")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method: unsupported value %q (use silero or pyannote)", c.Transcription.VADMethod)
	}
	return nil
}

func (c *Config) validateVision() error {
	if err := validateHTTPURL("vision.base_url", c.Vision.BaseURL); err != nil {
		return err
	}
	if c.Vision.Temperature < 0 || c.Vision.Temperature > 2 {
		return errors.New("vision.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateJudge() error {
	return validateHTTPURL("judge.base_url", c.Judge.BaseURL)
}

func (c *Config) validateRules() error {
	if c.Rules.Path == "" {
		return nil
	}
	info, err := os.Stat(c.Rules.Path)
	if err != nil {
		return fmt.Errorf("rules.path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("rules.path: %s is a directory", c.Rules.Path)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.RateLimitPerMinute < 0 {
		return errors.New("api.rate_limit_per_minute must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}
