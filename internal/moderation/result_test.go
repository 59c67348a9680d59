package moderation

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSuccessResultJSONShape(t *testing.T) {
	info := RunInfo{RequestID: "req-1", SourceURL: "https://youtu.be/x", Platform: PlatformYouTube, Duration: 1500 * time.Millisecond}
	result := SuccessResult(info, AudioEvidence{Transcript: "olá"}, nil, Verdict{Status: VerdictApproved, Reason: "ok"})

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["status"] != "success" {
		t.Fatalf("status = %v", payload["status"])
	}
	if payload["audio_transcription"] != "olá" {
		t.Fatalf("audio_transcription = %v", payload["audio_transcription"])
	}
	if visual, ok := payload["visual_analysis"].([]any); !ok || len(visual) != 0 {
		t.Fatalf("expected empty visual_analysis array, got %#v", payload["visual_analysis"])
	}
	verdict, ok := payload["final_verdict"].(map[string]any)
	if !ok || verdict["status"] != "APPROVED" {
		t.Fatalf("final_verdict = %#v", payload["final_verdict"])
	}
	if payload["duration_ms"] != float64(1500) {
		t.Fatalf("duration_ms = %v", payload["duration_ms"])
	}
	if _, ok := payload["message"]; ok {
		t.Fatal("success result should omit message")
	}
}

func TestSuccessResultCoercesInvalidStatus(t *testing.T) {
	result := SuccessResult(RunInfo{}, AudioEvidence{}, nil, Verdict{Status: "MAYBE"})
	if result.FinalVerdict.Status != VerdictUnknown {
		t.Fatalf("expected UNKNOWN, got %q", result.FinalVerdict.Status)
	}
}

func TestErrorResultAlwaysHasMessage(t *testing.T) {
	result := ErrorResult(RunInfo{RequestID: "r"}, "  ")
	if result.Status != StatusError || result.Message == "" {
		t.Fatalf("unexpected error result %+v", result)
	}
	if result.FinalVerdict != nil {
		t.Fatal("error result must not carry a verdict")
	}
	if result.Succeeded() {
		t.Fatal("error result reported success")
	}
}

func TestFormatVisualReports(t *testing.T) {
	reports := []VisualReport{
		{Fraction: 0.15, Raw: "CENA: praia"},
		{Fraction: 0.85, SceneDescription: "academia", OnScreenText: "Sem texto", SafetyFlags: "nenhum"},
	}
	got := FormatVisualReports(reports)
	want := "--- MOMENTO 15% ---\nCENA: praia\n--- MOMENTO 85% ---\nCENA: academia\nTEXTO: Sem texto\nALERTA: nenhum"
	if got != want {
		t.Fatalf("FormatVisualReports =\n%s\nwant\n%s", got, want)
	}
	if FormatVisualReports(nil) != "" {
		t.Fatal("expected empty string for no reports")
	}
}

func TestPercentRoundsFraction(t *testing.T) {
	for _, tc := range []struct {
		fraction float64
		want     int
	}{{0.15, 15}, {0.50, 50}, {0.85, 85}, {0.999, 100}} {
		if got := (VisualReport{Fraction: tc.fraction}).Percent(); got != tc.want {
			t.Fatalf("Percent(%v) = %d, want %d", tc.fraction, got, tc.want)
		}
	}
}

func TestVerdictStatusValid(t *testing.T) {
	for _, status := range []VerdictStatus{VerdictApproved, VerdictRejected, VerdictUnknown} {
		if !status.Valid() {
			t.Fatalf("%q should be valid", status)
		}
	}
	for _, status := range []VerdictStatus{"APROVADO", "approved", ""} {
		if status.Valid() {
			t.Fatalf("%q should be invalid", status)
		}
	}
}

func TestAudioEvidenceDegraded(t *testing.T) {
	if (AudioEvidence{Transcript: ""}).Degraded() {
		t.Fatal("empty transcript without error is not degraded")
	}
	if !(AudioEvidence{Transcript: "Erro na transcrição: x", Err: "x"}).Degraded() {
		t.Fatal("expected degraded evidence")
	}
}
