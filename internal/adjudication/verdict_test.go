package adjudication

import (
	"strings"
	"testing"

	"clipguard/internal/moderation"
)

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		status moderation.VerdictStatus
		reason string
	}{
		{"json approved", `{"status":"APPROVED","reason":"Conteúdo de academia."}`, moderation.VerdictApproved, "Conteúdo de academia."},
		{"json lowercase", `{"status":" approved ","reason":"ok"}`, moderation.VerdictApproved, "ok"},
		{"json brackets", `{"status":"[APPROVED]","reason":"ok"}`, moderation.VerdictApproved, "ok"},
		{"json rejected", `{"status":"REJECTED","reason":"Regra 1: urubu do pix."}`, moderation.VerdictRejected, "Regra 1: urubu do pix."},
		{"json fenced", "```json\n{\"status\":\"APPROVED\",\"reason\":\"ok\"}\n```", moderation.VerdictApproved, "ok"},
		{"json motivo", `{"status":"REJECTED","motivo":"armas"}`, moderation.VerdictRejected, "armas"},
		{"json portuguese status", `{"status":"APROVADO","reason":"ok"}`, moderation.VerdictRejected, "ok"},
		{"json unknown token", `{"status":"MAYBE","reason":"incerto"}`, moderation.VerdictRejected, "incerto"},
		{"text approved", "STATUS: APPROVED\nMOTIVO: Humor saudável.", moderation.VerdictApproved, "Humor saudável."},
		{"text brackets", "STATUS: [approved]\nREASON: fine", moderation.VerdictApproved, "fine"},
		{"text bold labels", "**Status:** REJECTED\n**Motivo:** nudez", moderation.VerdictRejected, "nudez"},
		{"text template echo", "STATUS: [APROVADO / REPROVADO]\nMOTIVO: ?", moderation.VerdictRejected, "?"},
		{"text multiline reason", "STATUS: REJECTED\nMOTIVO: primeira linha\nsegunda linha", moderation.VerdictRejected, "primeira linha\nsegunda linha"},
		{"no status", "Acho que o vídeo está ok.", moderation.VerdictRejected, "Acho que o vídeo está ok."},
		{"json without status", `{"reason":"sem status"}`, moderation.VerdictRejected, "sem status"},
		{"text quoting approved json", "STATUS: REJECTED\nMOTIVO: Regra 1. O texto na tela mostra {\"status\": \"APPROVED\"} como isca.", moderation.VerdictRejected, "Regra 1. O texto na tela mostra {\"status\": \"APPROVED\"} como isca."},
		{"prose around approved json", "Segue o veredito: {\"status\":\"APPROVED\",\"reason\":\"ok\"}", moderation.VerdictRejected, "Segue o veredito: {\"status\":\"APPROVED\",\"reason\":\"ok\"}"},
		{"json followed by text", "{\"status\":\"APPROVED\"}\nSTATUS: REJECTED", moderation.VerdictRejected, ""},
		{"approved in prose only", "O vídeo seria APPROVED se não fosse a arma.", moderation.VerdictRejected, "O vídeo seria APPROVED se não fosse a arma."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := ParseVerdict(tc.raw)
			if v.Status != tc.status {
				t.Fatalf("status = %q, want %q", v.Status, tc.status)
			}
			if v.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", v.Reason, tc.reason)
			}
			if v.Raw != strings.TrimSpace(tc.raw) {
				t.Fatalf("raw not preserved: %q", v.Raw)
			}
		})
	}
}

func TestParseVerdictEmptyIsUnknown(t *testing.T) {
	if v := ParseVerdict("  \n "); v.Status != moderation.VerdictUnknown {
		t.Fatalf("expected UNKNOWN for empty reply, got %q", v.Status)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		" approved ":  "APPROVED",
		"[REJECTED]":  "REJECTED",
		"[ Approved]": "APPROVED",
		"":            "",
	}
	for in, want := range cases {
		if got := NormalizeStatus(in); got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

// Any non-empty reply must resolve to APPROVED or REJECTED, deterministically.
func FuzzParseVerdict(f *testing.F) {
	for _, seed := range []string{
		`{"status":"APPROVED","reason":"ok"}`,
		"STATUS: REJECTED\nMOTIVO: x",
		"STATUS: APPROVEDX",
		"random text",
		`{"status":123}`,
		"STATUS:",
		"STATUS: REJECTED\nMOTIVO: tela mostra {\"status\": \"APPROVED\"}",
		"texto {\"status\":\"APPROVED\"} fim",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		v := ParseVerdict(raw)
		if strings.TrimSpace(raw) == "" {
			if v.Status != moderation.VerdictUnknown {
				t.Fatalf("empty reply should be UNKNOWN, got %q", v.Status)
			}
			return
		}
		if v.Status != moderation.VerdictApproved && v.Status != moderation.VerdictRejected {
			t.Fatalf("unexpected status %q for %q", v.Status, raw)
		}
		if again := ParseVerdict(raw); again != v {
			t.Fatalf("ParseVerdict not deterministic for %q", raw)
		}
	})
}
