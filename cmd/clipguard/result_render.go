package main

import (
	"fmt"
	"strings"
	"time"

	"clipguard/internal/moderation"
)

// renderResult formats a moderation result for a terminal.
func renderResult(result moderation.Result, colorize bool) string {
	var b strings.Builder

	summary := [][]string{
		{"Request", result.RequestID},
		{"URL", result.SourceURL},
		{"Platform", string(result.Platform)},
		{"Duration", (time.Duration(result.DurationMillis) * time.Millisecond).String()},
	}
	if !result.Succeeded() {
		summary = append(summary, []string{"Error", result.Message})
	}
	b.WriteString(renderTable(tableSpec{
		title:   "Moderation",
		headers: []string{"Field", "Value"},
		rows:    summary,
		wrap:    []int{1},
	}))
	b.WriteString("\n")
	if !result.Succeeded() {
		return b.String()
	}

	transcript := strings.TrimSpace(result.AudioTranscription)
	if transcript == "" {
		transcript = "(no speech)"
	}
	audioRows := [][]string{{"Transcript", transcript}}
	if result.AudioError != "" {
		audioRows = append(audioRows, []string{"Degraded", "yes"})
	}
	b.WriteString(renderTable(tableSpec{
		title:   "Audio",
		headers: []string{"Field", "Value"},
		rows:    audioRows,
		wrap:    []int{1},
	}))
	b.WriteString("\n")

	if len(result.VisualAnalysis) == 0 {
		b.WriteString("No visual evidence\n")
	} else {
		rows := make([][]string, 0, len(result.VisualAnalysis))
		for _, report := range result.VisualAnalysis {
			rows = append(rows, []string{
				fmt.Sprintf("%d%%", report.Percent()),
				report.SceneDescription,
				report.OnScreenText,
				report.SafetyFlags,
			})
		}
		b.WriteString(renderTable(tableSpec{
			title:   "Frames",
			headers: []string{"Moment", "Scene", "Text", "Alert"},
			rows:    rows,
			aligns:  []columnAlignment{alignRight},
			wrap:    []int{1, 2, 3},
		}))
		b.WriteString("\n")
	}

	if result.FinalVerdict != nil {
		b.WriteString(verdictLine(*result.FinalVerdict, colorize))
		b.WriteString("\n")
	}
	return b.String()
}

func verdictLine(verdict moderation.Verdict, colorize bool) string {
	kind := verdictKind(verdict.Status)
	message := strings.TrimSpace(verdict.Reason)
	line := renderStatusLine("Verdict", kind, string(verdict.Status), colorize)
	if message == "" {
		return line
	}
	return line + "\n" + statusIndent + message
}

func verdictKind(status moderation.VerdictStatus) statusKind {
	switch status {
	case moderation.VerdictApproved:
		return statusOK
	case moderation.VerdictRejected:
		return statusError
	default:
		return statusWarn
	}
}
