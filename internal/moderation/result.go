package moderation

import (
	"fmt"
	"strings"
	"time"
)

// ResultStatus distinguishes completed runs from runs aborted at acquisition.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// RunInfo carries the bookkeeping fields shared by success and error results.
type RunInfo struct {
	RequestID string
	SourceURL string
	Platform  Platform
	StartedAt time.Time
	Duration  time.Duration
}

// Result is the consolidated outcome of one moderation run.
type Result struct {
	Status             ResultStatus   `json:"status"`
	Message            string         `json:"message,omitempty"`
	RequestID          string         `json:"request_id"`
	SourceURL          string         `json:"source_url"`
	Platform           Platform       `json:"platform,omitempty"`
	AudioTranscription string         `json:"audio_transcription"`
	AudioError         string         `json:"audio_error,omitempty"`
	VisualAnalysis     []VisualReport `json:"visual_analysis"`
	FinalVerdict       *Verdict       `json:"final_verdict,omitempty"`
	StartedAt          time.Time      `json:"started_at"`
	DurationMillis     int64          `json:"duration_ms"`
}

// SuccessResult builds the result of a run that reached adjudication.
func SuccessResult(info RunInfo, audio AudioEvidence, reports []VisualReport, verdict Verdict) Result {
	if reports == nil {
		reports = []VisualReport{}
	}
	v := verdict
	if !v.Status.Valid() {
		v.Status = VerdictUnknown
	}
	return Result{
		Status:             StatusSuccess,
		RequestID:          info.RequestID,
		SourceURL:          info.SourceURL,
		Platform:           info.Platform,
		AudioTranscription: audio.Transcript,
		AudioError:         audio.Err,
		VisualAnalysis:     reports,
		FinalVerdict:       &v,
		StartedAt:          info.StartedAt,
		DurationMillis:     info.Duration.Milliseconds(),
	}
}

// ErrorResult builds the result of a run that aborted. An empty message is
// replaced with a generic one so callers always have something to show.
func ErrorResult(info RunInfo, message string) Result {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "Falha no processamento"
	}
	return Result{
		Status:         StatusError,
		Message:        message,
		RequestID:      info.RequestID,
		SourceURL:      info.SourceURL,
		Platform:       info.Platform,
		VisualAnalysis: []VisualReport{},
		StartedAt:      info.StartedAt,
		DurationMillis: info.Duration.Milliseconds(),
	}
}

// Succeeded reports whether the run reached adjudication.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// FormatVisualReports renders reports as tagged blocks, one per sampled
// moment, in the order given.
func FormatVisualReports(reports []VisualReport) string {
	blocks := make([]string, 0, len(reports))
	for _, report := range reports {
		blocks = append(blocks, fmt.Sprintf("--- MOMENTO %d%% ---\n%s", report.Percent(), report.Body()))
	}
	return strings.Join(blocks, "\n")
}

// Body returns the model output for the frame, rebuilding the labeled form
// from the parsed fields when the raw text was not kept.
func (r VisualReport) Body() string {
	if raw := strings.TrimSpace(r.Raw); raw != "" {
		return raw
	}
	lines := make([]string, 0, 3)
	if r.SceneDescription != "" {
		lines = append(lines, "CENA: "+r.SceneDescription)
	}
	if r.OnScreenText != "" {
		lines = append(lines, "TEXTO: "+r.OnScreenText)
	}
	if r.SafetyFlags != "" {
		lines = append(lines, "ALERTA: "+r.SafetyFlags)
	}
	return strings.Join(lines, "\n")
}
