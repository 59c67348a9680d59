package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeTranscription()
	c.normalizeVision()
	c.normalizeJudge()
	if err := c.normalizeRules(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CookiesDir) == "" {
		c.Paths.CookiesDir = defaultCookiesDir
	}
	if c.Paths.CookiesDir, err = expandPath(c.Paths.CookiesDir); err != nil {
		return fmt.Errorf("paths.cookies_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	if c.Download.Binary == "" {
		c.Download.Binary = defaultDownloadBinary
	}
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	c.Download.UserAgent = strings.TrimSpace(c.Download.UserAgent)
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = defaultDownloadUserAgent
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultTranscriptionLanguage
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultTranscriptionVAD
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeVision() {
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	if c.Vision.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Vision.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Vision.APIKey == "" {
		c.Vision.APIKey = defaultVisionAPIKey
	}
	c.Vision.Model = strings.TrimSpace(c.Vision.Model)
	if c.Vision.Model == "" {
		c.Vision.Model = defaultVisionModel
	}
	if c.Vision.MaxTokens <= 0 {
		c.Vision.MaxTokens = defaultVisionMaxTokens
	}
	if c.Vision.FrameWidth <= 0 {
		c.Vision.FrameWidth = defaultVisionFrameWidth
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeout
	}
}

func (c *Config) normalizeJudge() {
	c.Judge.APIKey = strings.TrimSpace(c.Judge.APIKey)
	if c.Judge.APIKey == "" {
		if value, ok := os.LookupEnv("CLIPGUARD_LLM_API_KEY"); ok {
			c.Judge.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Judge.APIKey = strings.TrimSpace(value)
		}
	}
	c.Judge.BaseURL = strings.TrimSpace(c.Judge.BaseURL)
	if c.Judge.BaseURL == "" {
		c.Judge.BaseURL = defaultJudgeBaseURL
	}
	c.Judge.Model = strings.TrimSpace(c.Judge.Model)
	if c.Judge.Model == "" {
		c.Judge.Model = defaultJudgeModel
	}
	c.Judge.Referer = strings.TrimSpace(c.Judge.Referer)
	c.Judge.Title = strings.TrimSpace(c.Judge.Title)
	if c.Judge.TimeoutSeconds <= 0 {
		c.Judge.TimeoutSeconds = defaultJudgeTimeout
	}
}

func (c *Config) normalizeRules() error {
	c.Rules.Path = strings.TrimSpace(c.Rules.Path)
	if c.Rules.Path == "" {
		return nil
	}
	var err error
	if c.Rules.Path, err = expandPath(c.Rules.Path); err != nil {
		return fmt.Errorf("rules.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if c.API.MaxConcurrent <= 0 {
		c.API.MaxConcurrent = defaultAPIMaxConcurrent
	}
	origins := make([]string, 0, len(c.API.CORSOrigins))
	for _, origin := range c.API.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.API.CORSOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
