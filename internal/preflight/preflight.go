package preflight

import (
	"context"

	"clipguard/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the readiness checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	if cfg.Paths.CookiesDir != "" {
		results = append(results, CheckCookieBundles(cfg.Paths.CookiesDir)...)
	}
	results = append(results, CheckLLM(ctx, "Judge LLM", cfg.Judge))
	results = append(results, CheckVision(ctx, cfg.Vision))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed && !result.Optional {
			failed = append(failed, result)
		}
	}
	return failed
}
