package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipguard/internal/config"
	"clipguard/internal/deps"
	"clipguard/internal/logging"
	"clipguard/internal/preflight"
	"clipguard/internal/workspace"
)

type statusReport struct {
	Dependencies []dependencyJSON   `json:"dependencies"`
	Checks       []checkJSON        `json:"checks"`
	Workspaces   []workspaceDirJSON `json:"workspaces"`
}

type dependencyJSON struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Optional  bool   `json:"optional"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

type checkJSON struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail"`
}

type workspaceDirJSON struct {
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Bytes    int64  `json:"bytes"`
	Modified string `json:"modified"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipEndpoints bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report binaries, model endpoints and work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, err := collectStatus(cmd.Context(), cfg, skipEndpoints)
			if err != nil {
				return err
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStatus(report, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipEndpoints, "skip-endpoints", false, "Skip the judge and vision model health checks")
	return cmd
}

func collectStatus(ctx context.Context, cfg *config.Config, skipEndpoints bool) (statusReport, error) {
	var report statusReport

	report.Dependencies = toDependencyJSON(preflight.CheckSystemDeps(cfg))

	var results []preflight.Result
	if skipEndpoints {
		results = append(results, preflight.CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
		if cfg.Paths.CookiesDir != "" {
			results = append(results, preflight.CheckCookieBundles(cfg.Paths.CookiesDir)...)
		}
	} else {
		results = preflight.RunAll(ctx, cfg)
	}
	for _, result := range results {
		report.Checks = append(report.Checks, checkJSON{
			Name:     result.Name,
			Passed:   result.Passed,
			Optional: result.Optional,
			Detail:   result.Detail,
		})
	}

	dirs, err := workspace.NewManager(cfg.Paths.WorkDir, logging.NewNop()).List()
	if err != nil {
		return report, fmt.Errorf("list work directories: %w", err)
	}
	for _, dir := range dirs {
		report.Workspaces = append(report.Workspaces, workspaceDirJSON{
			Name:     dir.Name,
			Active:   dir.Active,
			Bytes:    dir.Size,
			Modified: dir.ModTime.Format("2006-01-02 15:04:05"),
		})
	}
	return report, nil
}

func renderStatus(report statusReport, colorize bool) string {
	var lines []string

	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	lines = append(lines, dependencyLines(report.Dependencies, colorize)...)
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	checkRows := make([][]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		kind := checkKind(check)
		checkRows = append(checkRows, []string{
			check.Name,
			colorizeCell(kind, statusKindLabel(kind), colorize),
			check.Detail,
		})
	}
	lines = append(lines, renderTable(tableSpec{
		headers: []string{"Check", "Status", "Detail"},
		rows:    checkRows,
		wrap:    []int{2},
	}), "")

	lines = append(lines, renderSectionHeader("Work directories", colorize)...)
	if len(report.Workspaces) == 0 {
		lines = append(lines, statusIndent+"none")
	} else {
		rows := make([][]string, 0, len(report.Workspaces))
		for _, dir := range report.Workspaces {
			rows = append(rows, []string{dir.Name, yesNo(dir.Active), formatBytes(dir.Bytes), dir.Modified})
		}
		lines = append(lines, renderTable(tableSpec{
			headers: []string{"Request", "Active", "Size", "Modified"},
			rows:    rows,
			aligns:  []columnAlignment{alignLeft, alignLeft, alignRight},
		}))
	}

	return strings.Join(lines, "\n") + "\n"
}

func dependencyLines(statuses []dependencyJSON, colorize bool) []string {
	var missing []string
	var lines []string
	for _, status := range statuses {
		switch {
		case status.Available:
			lines = append(lines, renderStatusLine(status.Name, statusOK, fmt.Sprintf("Ready (command: %s)", status.Command), colorize))
		case status.Optional:
			lines = append(lines, renderStatusLine(status.Name, statusWarn, detailOr(status.Detail, "not available"), colorize))
		default:
			missing = append(missing, status.Name)
			lines = append(lines, renderStatusLine(status.Name, statusError, detailOr(status.Detail, "not available"), colorize))
		}
	}

	summary := renderStatusLine("Summary", statusOK, fmt.Sprintf("%d/%d available", len(statuses)-len(missing), len(statuses)), colorize)
	if len(missing) > 0 {
		summary = renderStatusLine("Summary", statusError, fmt.Sprintf("%d/%d available", len(statuses)-len(missing), len(statuses)), colorize)
		lines = append(lines, renderStatusLine("Missing dependencies", statusError, strings.Join(missing, ", "), colorize))
	}
	return append([]string{summary}, lines...)
}

func detailOr(detail, fallback string) string {
	if strings.TrimSpace(detail) == "" {
		return fallback
	}
	return detail
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func checkKind(check checkJSON) statusKind {
	switch {
	case check.Passed:
		return statusOK
	case check.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func toDependencyJSON(statuses []deps.Status) []dependencyJSON {
	out := make([]dependencyJSON, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, dependencyJSON{Name: s.Name, Command: s.Command, Optional: s.Optional, Available: s.Available, Detail: s.Detail})
	}
	return out
}
