package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"clipguard/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CLIPGUARD_LLM_API_KEY", "judge-key")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "clipguard", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	wantCookies := filepath.Join(tempHome, ".config", "clipguard", "cookies")
	if cfg.Paths.CookiesDir != wantCookies {
		t.Fatalf("unexpected cookies dir: got %q want %q", cfg.Paths.CookiesDir, wantCookies)
	}
	if cfg.Judge.APIKey != "judge-key" {
		t.Fatalf("expected judge key from env, got %q", cfg.Judge.APIKey)
	}
	if cfg.Transcription.Language != "pt" {
		t.Fatalf("expected pt transcription language, got %q", cfg.Transcription.Language)
	}
	if cfg.Vision.FrameWidth != 960 {
		t.Fatalf("expected 960px frames, got %d", cfg.Vision.FrameWidth)
	}
	if !cfg.Pipeline.ParallelExtraction {
		t.Fatal("expected parallel extraction by default")
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.txt")
	if err := os.WriteFile(rulesPath, []byte("1. PROIBIDO: tudo\n"), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	payload := map[string]any{
		"paths": map[string]any{
			"work_dir": filepath.Join(dir, "work"),
			"log_dir":  filepath.Join(dir, "logs"),
		},
		"download": map[string]any{
			"retries":         0,
			"timeout_seconds": 30,
		},
		"judge": map[string]any{
			"model":   "  llama3.1:70b  ",
			"api_key": "abc",
		},
		"rules": map[string]any{
			"path": rulesPath,
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	configPath := filepath.Join(dir, "clipguard.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Judge.Model != "llama3.1:70b" {
		t.Fatalf("expected trimmed judge model, got %q", cfg.Judge.Model)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
	if cfg.Rules.Path != rulesPath {
		t.Fatalf("unexpected rules path %q", cfg.Rules.Path)
	}
	if cfg.DownloadTimeout().Seconds() != 30 {
		t.Fatalf("unexpected download timeout %s", cfg.DownloadTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "work")); err != nil {
		t.Fatalf("expected work dir to exist: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "negative retries",
			mutate:  func(c *config.Config) { c.Download.Retries = -1 },
			wantErr: "download.retries",
		},
		{
			name:    "vad method",
			mutate:  func(c *config.Config) { c.Transcription.VADMethod = "webrtc" },
			wantErr: "transcription.vad_method",
		},
		{
			name:    "vision url",
			mutate:  func(c *config.Config) { c.Vision.BaseURL = "localhost:11434" },
			wantErr: "vision.base_url",
		},
		{
			name:    "judge url",
			mutate:  func(c *config.Config) { c.Judge.BaseURL = "ftp://example.com" },
			wantErr: "judge.base_url",
		},
		{
			name:    "missing rules file",
			mutate:  func(c *config.Config) { c.Rules.Path = "/nonexistent/rules.yaml" },
			wantErr: "rules.path",
		},
		{
			name:    "log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
