package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"clipguard/internal/acquisition"
	"clipguard/internal/adjudication"
	"clipguard/internal/audioevidence"
	"clipguard/internal/moderation"
	"clipguard/internal/rules"
	"clipguard/internal/services"
	"clipguard/internal/workspace"
)

type stubAcquirer struct {
	err   error
	panic bool
	dirs  []string
}

func (s *stubAcquirer) Acquire(_ context.Context, rawURL, dir string) (moderation.AcquiredMedia, error) {
	s.dirs = append(s.dirs, dir)
	if s.panic {
		panic("yt-dlp wrapper exploded")
	}
	if s.err != nil {
		return moderation.AcquiredMedia{}, &acquisition.AcquisitionError{URL: rawURL, Err: s.err}
	}
	path := filepath.Join(dir, "media.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return moderation.AcquiredMedia{}, err
	}
	return moderation.AcquiredMedia{LocalPath: path, Platform: acquisition.DetectPlatform(rawURL)}, nil
}

type stubAudio struct {
	evidence moderation.AudioEvidence
	calls    atomic.Int32
	delay    time.Duration
	panic    bool
	stage    string
}

func (s *stubAudio) Transcribe(ctx context.Context, _ moderation.AcquiredMedia, _ string) moderation.AudioEvidence {
	s.calls.Add(1)
	s.stage, _ = services.StageFromContext(ctx)
	if s.panic {
		panic("whisperx crashed")
	}
	time.Sleep(s.delay)
	return s.evidence
}

type stubVisual struct {
	reports []moderation.VisualReport
	calls   atomic.Int32
	delay   time.Duration
	panic   bool
}

func (s *stubVisual) Extract(context.Context, moderation.AcquiredMedia, string) []moderation.VisualReport {
	s.calls.Add(1)
	if s.panic {
		panic("frame worker crashed")
	}
	time.Sleep(s.delay)
	return s.reports
}

type stubJudge struct {
	verdict moderation.Verdict
	mu      sync.Mutex
	calls   int
	audio   moderation.AudioEvidence
	reports []moderation.VisualReport
}

func (s *stubJudge) Adjudicate(_ context.Context, _ *rules.RuleSet, audio moderation.AudioEvidence, reports []moderation.VisualReport) moderation.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.audio, s.reports = audio, reports
	return s.verdict
}

type fixture struct {
	acq     *stubAcquirer
	audio   *stubAudio
	visual  *stubVisual
	judge   *stubJudge
	root    string
	reg     *prometheus.Registry
	metrics *Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	return &fixture{
		acq:     &stubAcquirer{},
		audio:   &stubAudio{evidence: moderation.AudioEvidence{Transcript: "bora treinar"}},
		visual:  &stubVisual{reports: []moderation.VisualReport{{Fraction: 0.15, SceneDescription: "academia"}}},
		judge:   &stubJudge{verdict: moderation.Verdict{Status: moderation.VerdictApproved, Reason: "ok"}},
		root:    t.TempDir(),
		reg:     reg,
		metrics: NewMetrics(reg),
	}
}

func (f *fixture) orchestrator(t *testing.T, parallel bool) *Orchestrator {
	t.Helper()
	o, err := New(Options{
		Acquirer:  f.acq,
		Audio:     f.audio,
		Visual:    f.visual,
		Judge:     f.judge,
		Workspace: workspace.NewManager(f.root, nil),
		Metrics:   f.metrics,
		Parallel:  parallel,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return o
}

func assertRootEmpty(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected work root to be empty after run, found %d entries", len(entries))
	}
}

func TestRunApprovedVideo(t *testing.T) {
	f := newFixture(t)
	result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "https://www.tiktok.com/@a/video/1"})

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.FinalVerdict == nil || !result.FinalVerdict.Approved() {
		t.Fatalf("expected approved verdict, got %+v", result.FinalVerdict)
	}
	if result.Platform != moderation.PlatformTikTok {
		t.Fatalf("unexpected platform %q", result.Platform)
	}
	if result.AudioTranscription != "bora treinar" || len(result.VisualAnalysis) != 1 {
		t.Fatalf("evidence not propagated: %+v", result)
	}
	if result.RequestID == "" {
		t.Fatal("expected request id")
	}
	if f.judge.calls != 1 {
		t.Fatalf("expected one judge call, got %d", f.judge.calls)
	}
	if f.audio.stage != StageAudio {
		t.Fatalf("expected audio stage in context, got %q", f.audio.stage)
	}
	if filepath.Base(f.acq.dirs[0]) != result.RequestID {
		t.Fatalf("work dir %q should be named after the request", f.acq.dirs[0])
	}
	assertRootEmpty(t, f.root)

	if got := testutil.ToFloat64(f.metrics.verdicts.WithLabelValues("APPROVED")); got != 1 {
		t.Fatalf("expected approved verdict counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.inFlight); got != 0 {
		t.Fatalf("expected no runs in flight, got %v", got)
	}
}

func TestRunAcquisitionFailureSkipsDownstream(t *testing.T) {
	f := newFixture(t)
	f.acq.err = services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "Unsupported URL", nil)

	result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "https://example.com/missing"})
	if result.Status != moderation.StatusError || result.Message != acquisition.FailureMessage {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.FinalVerdict != nil {
		t.Fatal("error result must not carry a verdict")
	}
	if f.audio.calls.Load() != 0 || f.visual.calls.Load() != 0 || f.judge.calls != 0 {
		t.Fatal("no downstream stage may run after acquisition failure")
	}
	assertRootEmpty(t, f.root)
	if got := testutil.ToFloat64(f.metrics.runs.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected error run counter 1, got %v", got)
	}
}

func TestRunDegradedEvidenceStillAdjudicates(t *testing.T) {
	f := newFixture(t)
	f.audio.evidence = audioevidence.Degraded(errors.New("ffmpeg extract: exit status 1"))
	f.visual.reports = nil
	f.judge.verdict = moderation.Verdict{Status: moderation.VerdictUnknown, Reason: "Falha na adjudicação: timeout"}

	result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "https://youtu.be/x"})
	if !result.Succeeded() {
		t.Fatalf("degraded evidence must not abort the run: %+v", result)
	}
	if f.judge.calls != 1 || !f.judge.audio.Degraded() {
		t.Fatal("judge should receive the degraded transcript")
	}
	if result.AudioError == "" {
		t.Fatal("expected audio error to be reported")
	}
	if result.VisualAnalysis == nil || len(result.VisualAnalysis) != 0 {
		t.Fatalf("expected empty visual analysis, got %#v", result.VisualAnalysis)
	}
	if result.FinalVerdict.Status != moderation.VerdictUnknown {
		t.Fatalf("expected UNKNOWN verdict, got %q", result.FinalVerdict.Status)
	}
	if got := testutil.ToFloat64(f.metrics.audioDegraded); got != 1 {
		t.Fatalf("expected degraded counter 1, got %v", got)
	}
}

func TestRunPartialVisualEvidence(t *testing.T) {
	f := newFixture(t)
	f.visual.reports = []moderation.VisualReport{
		{Fraction: 0.15, SceneDescription: "início"},
		{Fraction: 0.85, SceneDescription: "fim"},
	}
	result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "https://example.com/v.mp4"})
	if len(result.VisualAnalysis) != 2 || len(f.judge.reports) != 2 {
		t.Fatalf("expected two reports forwarded, got %+v", result.VisualAnalysis)
	}
}

func TestRunParallelExtraction(t *testing.T) {
	f := newFixture(t)
	f.audio.delay = 100 * time.Millisecond
	f.visual.delay = 100 * time.Millisecond

	started := time.Now()
	result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "https://example.com/v"})
	if !result.Succeeded() {
		t.Fatalf("unexpected result %+v", result)
	}
	if elapsed := time.Since(started); elapsed >= 190*time.Millisecond {
		t.Fatalf("extraction should overlap, took %s", elapsed)
	}
}

func TestRunSequentialExtraction(t *testing.T) {
	f := newFixture(t)
	result := f.orchestrator(t, false).Run(context.Background(), moderation.Request{SourceURL: "https://example.com/v"})
	if !result.Succeeded() || f.audio.calls.Load() != 1 || f.visual.calls.Load() != 1 {
		t.Fatalf("sequential run should call each extractor once: %+v", result)
	}
}

func TestRunRecoversStagePanics(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		f := newFixture(t)
		f.acq.panic = true
		result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "https://example.com/v"})
		if result.Status != moderation.StatusError || result.Message != MessageInternalFailure {
			t.Fatalf("unexpected result %+v", result)
		}
		assertRootEmpty(t, f.root)
	})
	t.Run("audio", func(t *testing.T) {
		f := newFixture(t)
		f.audio.panic = true
		result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "https://example.com/v"})
		if !result.Succeeded() || f.judge.calls != 1 {
			t.Fatalf("audio panic should degrade evidence, got %+v", result)
		}
		if !f.judge.audio.Degraded() || result.AudioError == "" {
			t.Fatalf("judge should see degraded audio, got %+v", f.judge.audio)
		}
		if len(result.VisualAnalysis) != 1 {
			t.Fatalf("visual evidence should survive an audio panic, got %+v", result.VisualAnalysis)
		}
		assertRootEmpty(t, f.root)
	})
	t.Run("visual", func(t *testing.T) {
		f := newFixture(t)
		f.visual.panic = true
		result := f.orchestrator(t, false).Run(context.Background(), moderation.Request{SourceURL: "https://example.com/v"})
		if !result.Succeeded() || f.judge.calls != 1 {
			t.Fatalf("visual panic should degrade evidence, got %+v", result)
		}
		if result.VisualAnalysis == nil || len(result.VisualAnalysis) != 0 || len(f.judge.reports) != 0 {
			t.Fatalf("expected empty visual analysis, got %#v", result.VisualAnalysis)
		}
		if result.AudioTranscription != "bora treinar" {
			t.Fatalf("audio evidence should survive a visual panic, got %q", result.AudioTranscription)
		}
		assertRootEmpty(t, f.root)
	})
}

type scriptedCompleter struct {
	reply  string
	system string
	user   string
}

func (s *scriptedCompleter) CompleteJSON(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, nil
}

func TestRunFinancialSchemeIsRejected(t *testing.T) {
	f := newFixture(t)
	f.audio.evidence = moderation.AudioEvidence{Transcript: "Entra no grupo do urubu do pix e dobra teu dinheiro em uma hora"}
	completer := &scriptedCompleter{reply: `{"status":"REJECTED","reason":"Regra 1: promessa de ganho fácil com pix."}`}

	o, err := New(Options{
		Acquirer:  f.acq,
		Audio:     f.audio,
		Visual:    f.visual,
		Judge:     adjudication.NewEngine(completer, time.Minute, nil),
		Workspace: workspace.NewManager(f.root, nil),
		Parallel:  true,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result := o.Run(context.Background(), moderation.Request{SourceURL: "https://www.instagram.com/reel/abc"})

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.FinalVerdict == nil || result.FinalVerdict.Status != moderation.VerdictRejected {
		t.Fatalf("expected REJECTED verdict, got %+v", result.FinalVerdict)
	}
	if !strings.Contains(result.FinalVerdict.Reason, "Regra 1") {
		t.Fatalf("reason should cite rule 1, got %q", result.FinalVerdict.Reason)
	}
	if !strings.Contains(completer.user, "urubu do pix e dobra teu dinheiro") {
		t.Fatalf("prompt missing transcript:\n%s", completer.user)
	}
	if !strings.Contains(completer.system, "1. PROIBIDO: ") {
		t.Fatalf("prompt missing rule 1:\n%s", completer.system)
	}
	assertRootEmpty(t, f.root)
}

func TestRunUsesRequestIDFromContext(t *testing.T) {
	f := newFixture(t)
	ctx := services.WithRequestID(context.Background(), "req-42")
	result := f.orchestrator(t, true).Run(ctx, moderation.Request{SourceURL: "https://example.com/v"})
	if result.RequestID != "req-42" || filepath.Base(f.acq.dirs[0]) != "req-42" {
		t.Fatalf("expected request id from context, got %q", result.RequestID)
	}
}

func TestRunEmptyURL(t *testing.T) {
	f := newFixture(t)
	result := f.orchestrator(t, true).Run(context.Background(), moderation.Request{SourceURL: "  "})
	if result.Status != moderation.StatusError || result.Message != MessageInvalidRequest {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(f.acq.dirs) != 0 {
		t.Fatal("acquirer should not run without a URL")
	}
}

func TestRunDurationUsesClock(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	o, err := New(Options{
		Acquirer:  f.acq,
		Audio:     f.audio,
		Visual:    f.visual,
		Judge:     f.judge,
		Workspace: workspace.NewManager(f.root, nil),
		Now: func() time.Time {
			return base.Add(time.Duration(ticks.Add(1)-1) * 1500 * time.Millisecond)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	result := o.Run(context.Background(), moderation.Request{SourceURL: "https://example.com/v"})
	if !result.StartedAt.Equal(base) || result.DurationMillis != 1500 {
		t.Fatalf("unexpected timing %s %dms", result.StartedAt, result.DurationMillis)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
