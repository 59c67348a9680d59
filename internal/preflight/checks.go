package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"clipguard/internal/acquisition"
	"clipguard/internal/config"
	"clipguard/internal/deps"
	"clipguard/internal/moderation"
	"clipguard/internal/services/llm"
	"clipguard/internal/services/vision"
)

// CheckLLM verifies that the judge endpoint answers with the configured
// model. It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.Judge) Result {
	if cfg.Model == "" {
		return Result{Name: name, Detail: "model not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeEndpointError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.Model)}
}

// CheckVision verifies that the captioning endpoint is reachable and serves
// the configured model.
func CheckVision(ctx context.Context, cfg config.Vision) Result {
	const name = "Vision model"
	if cfg.Model == "" {
		return Result{Name: name, Detail: "model not configured"}
	}

	svc := vision.NewService(vision.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err := svc.HealthCheck(ctx); err != nil {
		return Result{Name: name, Detail: summarizeEndpointError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s available", cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCookieBundles reports which platform cookie files are present in dir.
// Missing bundles are advisory: downloads proceed without authentication.
func CheckCookieBundles(dir string) []Result {
	var results []Result
	for _, platform := range moderation.Platforms() {
		if _, ok := acquisition.CookieFileName(platform); !ok {
			continue
		}
		name := fmt.Sprintf("Cookies (%s)", platform)
		path, ok := acquisition.CookiePath(dir, platform)
		if !ok {
			results = append(results, Result{Name: name, Optional: true, Detail: "cookies directory not configured"})
			continue
		}
		info, err := os.Stat(path)
		switch {
		case err != nil:
			results = append(results, Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s missing (downloads unauthenticated)", path)})
		case info.Size() == 0:
			results = append(results, Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s is empty", path)})
		default:
			results = append(results, Result{Name: name, Optional: true, Passed: true, Detail: path})
		}
	}
	return results
}

// CheckSystemDeps evaluates all system-level dependencies for the given config.
// Both the server and the CLI status command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// summarizeEndpointError produces a human-readable summary for model endpoint failures.
func summarizeEndpointError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (endpoint unreachable)"
	}
	return err.Error()
}
