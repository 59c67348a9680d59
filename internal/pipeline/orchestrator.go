package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"clipguard/internal/acquisition"
	"clipguard/internal/audioevidence"
	"clipguard/internal/logging"
	"clipguard/internal/moderation"
	"clipguard/internal/rules"
	"clipguard/internal/services"
	"clipguard/internal/workspace"
)

// User-facing messages for aborted runs.
const (
	MessageWorkspaceFailed = "Falha ao preparar o diretório de trabalho"
	MessageInternalFailure = "Falha no processamento"
	MessageInvalidRequest  = "URL não informada"
)

// Acquirer downloads the submitted media.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL, dir string) (moderation.AcquiredMedia, error)
}

// AudioExtractor produces the transcript evidence.
type AudioExtractor interface {
	Transcribe(ctx context.Context, media moderation.AcquiredMedia, workDir string) moderation.AudioEvidence
}

// VisualExtractor produces the frame reports.
type VisualExtractor interface {
	Extract(ctx context.Context, media moderation.AcquiredMedia, workDir string) []moderation.VisualReport
}

// Judge issues the verdict.
type Judge interface {
	Adjudicate(ctx context.Context, rs *rules.RuleSet, audio moderation.AudioEvidence, reports []moderation.VisualReport) moderation.Verdict
}

// Options wires an Orchestrator.
type Options struct {
	Acquirer  Acquirer
	Audio     AudioExtractor
	Visual    VisualExtractor
	Judge     Judge
	Rules     *rules.RuleSet
	Workspace *workspace.Manager
	Logger    *slog.Logger
	Metrics   *Metrics
	// Parallel runs audio and visual extraction concurrently.
	Parallel bool
	// Now overrides the clock (for testing).
	Now func() time.Time
}

// Orchestrator runs moderation requests.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	var missing []string
	if opts.Acquirer == nil {
		missing = append(missing, "acquirer")
	}
	if opts.Audio == nil {
		missing = append(missing, "audio extractor")
	}
	if opts.Visual == nil {
		missing = append(missing, "visual extractor")
	}
	if opts.Judge == nil {
		missing = append(missing, "judge")
	}
	if opts.Workspace == nil {
		missing = append(missing, "workspace")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "missing "+strings.Join(missing, ", "), nil)
	}
	if opts.Rules == nil {
		opts.Rules = rules.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

// Rules returns the rule set applied by the judge.
func (o *Orchestrator) Rules() *rules.RuleSet {
	return o.opts.Rules
}

// stagePanic is a panic recovered from a pipeline stage.
type stagePanic struct {
	stage string
	value any
	stack []byte
}

func (p *stagePanic) Error() string {
	return fmt.Sprintf("%s stage panicked: %v", p.stage, p.value)
}

// Run executes req. The request id is taken from ctx when present.
func (o *Orchestrator) Run(ctx context.Context, req moderation.Request) (result moderation.Result) {
	id, ok := services.RequestIDFromContext(ctx)
	if !ok {
		id = workspace.NewRequestID()
		ctx = services.WithRequestID(ctx, id)
	}
	info := moderation.RunInfo{
		RequestID: id,
		SourceURL: strings.TrimSpace(req.SourceURL),
		Platform:  acquisition.DetectPlatform(req.SourceURL),
		StartedAt: o.opts.Now().UTC(),
	}
	logger := logging.WithContext(ctx, o.logger)

	o.opts.Metrics.started()
	defer func() {
		if r := recover(); r != nil {
			o.logPanic(logger, &stagePanic{stage: "pipeline", value: r, stack: debug.Stack()})
			result = moderation.ErrorResult(o.finish(info), MessageInternalFailure)
		}
		o.opts.Metrics.finished(result)
		logger.Info("moderation run finished",
			logging.String(logging.FieldEventType, "run_finished"),
			logging.String("status", string(result.Status)),
			logging.String("verdict", verdictStatus(result)),
			logging.Int("duration_ms", int(result.DurationMillis)),
		)
	}()

	if info.SourceURL == "" {
		return moderation.ErrorResult(o.finish(info), MessageInvalidRequest)
	}
	logger.Info("moderation run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.String("url", info.SourceURL),
		logging.String(logging.FieldPlatform, string(info.Platform)),
	)

	started := time.Now()
	run, err := o.opts.Workspace.Begin(ctx, id)
	o.opts.Metrics.observeStage(StageWorkspace, time.Since(started))
	if err != nil {
		logging.ErrorWithContext(logger, "work directory unavailable", "workspace_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.work_dir permissions and free space"),
		)
		return moderation.ErrorResult(o.finish(info), MessageWorkspaceFailed)
	}
	defer func() {
		if err := run.Close(); err != nil {
			logging.WarnWithContext(logger, "work directory cleanup failed", "workspace_cleanup_failed",
				logging.String("path", run.Dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed until the next sweep"),
			)
		}
	}()

	media, err := o.acquire(ctx, info.SourceURL, run.Dir)
	if err != nil {
		var panicErr *stagePanic
		if errors.As(err, &panicErr) {
			o.logPanic(logger, panicErr)
			return moderation.ErrorResult(o.finish(info), MessageInternalFailure)
		}
		logging.ErrorWithContext(logger, "media acquisition failed", "acquisition_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the URL is public or install the platform cookie bundle"),
		)
		return moderation.ErrorResult(o.finish(info), acquisition.FailureMessage)
	}
	info.Platform = media.Platform
	ctx = services.WithPlatform(ctx, string(media.Platform))

	audio, reports := o.gather(ctx, logger, media, run.Dir)

	var verdict moderation.Verdict
	if err := o.stage(ctx, StageAdjudicate, func(ctx context.Context) {
		verdict = o.opts.Judge.Adjudicate(ctx, o.opts.Rules, audio, reports)
	}); err != nil {
		o.logPanic(logger, err)
		return moderation.ErrorResult(o.finish(info), MessageInternalFailure)
	}

	return moderation.SuccessResult(o.finish(info), audio, reports, verdict)
}

func (o *Orchestrator) acquire(ctx context.Context, rawURL, dir string) (moderation.AcquiredMedia, error) {
	var (
		media moderation.AcquiredMedia
		err   error
	)
	if perr := o.stage(ctx, StageAcquire, func(ctx context.Context) {
		media, err = o.opts.Acquirer.Acquire(ctx, rawURL, dir)
	}); perr != nil {
		return media, perr
	}
	return media, err
}

// gather collects audio and visual evidence. A panicking evidence stage
// degrades its own evidence; the run still reaches the judge.
func (o *Orchestrator) gather(ctx context.Context, logger *slog.Logger, media moderation.AcquiredMedia, dir string) (moderation.AudioEvidence, []moderation.VisualReport) {
	var (
		audio   moderation.AudioEvidence
		reports []moderation.VisualReport
	)
	audioStage := func() error {
		if err := o.stage(ctx, StageAudio, func(ctx context.Context) {
			audio = o.opts.Audio.Transcribe(ctx, media, dir)
		}); err != nil {
			o.logPanic(logger, err)
			audio = audioevidence.Degraded(err)
		}
		return nil
	}
	visualStage := func() error {
		if err := o.stage(ctx, StageVisual, func(ctx context.Context) {
			reports = o.opts.Visual.Extract(ctx, media, dir)
		}); err != nil {
			o.logPanic(logger, err)
			reports = []moderation.VisualReport{}
		}
		return nil
	}

	if !o.opts.Parallel {
		_ = audioStage()
		_ = visualStage()
		return audio, reports
	}

	var group errgroup.Group
	group.Go(audioStage)
	group.Go(visualStage)
	_ = group.Wait()
	return audio, reports
}

// stage runs fn with stage context, timing and panic recovery.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context)) (err error) {
	started := time.Now()
	defer func() {
		o.opts.Metrics.observeStage(name, time.Since(started))
		if r := recover(); r != nil {
			err = &stagePanic{stage: name, value: r, stack: debug.Stack()}
		}
	}()
	fn(services.WithStage(ctx, name))
	return nil
}

func (o *Orchestrator) logPanic(logger *slog.Logger, err error) {
	attrs := []logging.Attr{logging.Error(err)}
	var panicErr *stagePanic
	if errors.As(err, &panicErr) {
		attrs = append(attrs,
			logging.String(logging.FieldStage, panicErr.stage),
			logging.String("stack", string(panicErr.stack)),
		)
	}
	logging.ErrorWithContext(logger, "pipeline stage panicked", "stage_panic", attrs...)
}

func (o *Orchestrator) finish(info moderation.RunInfo) moderation.RunInfo {
	info.Duration = o.opts.Now().UTC().Sub(info.StartedAt)
	return info
}

func verdictStatus(result moderation.Result) string {
	if result.FinalVerdict == nil {
		return ""
	}
	return string(result.FinalVerdict.Status)
}
