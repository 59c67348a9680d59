package visualevidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"clipguard/internal/logging"
	"clipguard/internal/media/frames"
	"clipguard/internal/moderation"
)

const framesDirName = "frames"

// FrameSource probes media and captures resized frames. *frames.Source
// implements it.
type FrameSource interface {
	Probe(ctx context.Context, path string) (frames.VideoInfo, error)
	Capture(ctx context.Context, path string, index, width, height int, dest string) (frames.Frame, error)
}

// Captioner describes a single image. *vision.Service implements it.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

// Config tunes an Extractor.
type Config struct {
	FrameWidth int
	// Concurrency bounds simultaneous caption calls. Zero means one at a time.
	Concurrency int
}

// Extractor produces visual reports for acquired media.
type Extractor struct {
	source    FrameSource
	captioner Captioner
	width     int
	limit     int
	logger    *slog.Logger
}

// NewExtractor wires a frame source and a captioner.
func NewExtractor(source FrameSource, captioner Captioner, cfg Config, logger *slog.Logger) *Extractor {
	if cfg.FrameWidth <= 0 {
		cfg.FrameWidth = DefaultFrameWidth
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		source:    source,
		captioner: captioner,
		width:     cfg.FrameWidth,
		limit:     cfg.Concurrency,
		logger:    logger,
	}
}

type frameOutcome struct {
	report moderation.VisualReport
	err    error
}

// Extract samples the configured fractions from media and captions each
// frame. The returned slice is never nil.
func (e *Extractor) Extract(ctx context.Context, media moderation.AcquiredMedia, workDir string) []moderation.VisualReport {
	logger := logging.WithContext(ctx, e.logger)
	reports := []moderation.VisualReport{}
	if e.source == nil || e.captioner == nil {
		logging.WarnWithContext(logger, "visual extraction not configured", "visual_unconfigured")
		return reports
	}

	info, err := e.source.Probe(ctx, media.LocalPath)
	if err != nil {
		logging.WarnWithContext(logger, "media unreadable; no visual evidence", "visual_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the download is a playable video"),
		)
		return reports
	}
	height := ScaledHeight(info.Width, info.Height, e.width)
	if height <= 0 {
		logging.WarnWithContext(logger, "video has no usable dimensions; no visual evidence", "visual_probe_failed",
			logging.Int("width", info.Width),
			logging.Int("height", info.Height),
		)
		return reports
	}
	logger.Debug("media probed",
		logging.Int("frame_count", info.FrameCount),
		logging.Int("width", info.Width),
		logging.Int("height", info.Height),
		logging.Int("audio_streams", info.AudioStreams),
		logging.Any("size_bytes", info.SizeBytes),
	)

	fractions := moderation.SampleFractions
	outcomes := make([]frameOutcome, len(fractions))
	dir := filepath.Join(workDir, framesDirName)

	// Workers never return an error so one failed frame cannot cancel the rest.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.limit)
	for i, fraction := range fractions {
		sample := moderation.FrameSample{
			Fraction: fraction,
			Index:    FrameIndex(info.FrameCount, fraction),
			Path:     filepath.Join(dir, frames.FileName(i)),
			Width:    e.width,
			Height:   height,
		}
		group.Go(func() error {
			outcomes[i] = e.describe(groupCtx, media.LocalPath, sample)
			return nil
		})
	}
	_ = group.Wait()

	for i, outcome := range outcomes {
		if outcome.err != nil {
			logging.WarnWithContext(logger, "frame skipped", "frame_failed",
				logging.Int("frame", i),
				logging.Any("fraction", fractions[i]),
				logging.Error(outcome.err),
			)
			continue
		}
		reports = append(reports, outcome.report)
	}

	logger.Info("visual evidence collected",
		logging.String(logging.FieldEventType, "visual_collected"),
		logging.Int("frames_total", info.FrameCount),
		logging.Int("reports", len(reports)),
		logging.Int("sampled", len(fractions)),
	)
	return reports
}

// describe captures and captions one frame. A panic in the source or the
// captioner drops only that frame.
func (e *Extractor) describe(ctx context.Context, path string, sample moderation.FrameSample) (outcome frameOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = frameOutcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()
	started := time.Now()
	frame, err := e.source.Capture(ctx, path, sample.Index, sample.Width, sample.Height, sample.Path)
	if err != nil {
		return frameOutcome{err: fmt.Errorf("capture: %w", err)}
	}
	sample.Image = frame.Image
	if len(sample.Image) == 0 {
		return frameOutcome{err: errors.New("capture: empty image")}
	}

	text, err := e.captioner.Caption(ctx, sample.Image)
	if err != nil {
		return frameOutcome{err: fmt.Errorf("caption: %w", err)}
	}
	report := ParseCaption(text)
	report.Fraction = sample.Fraction

	e.logger.Debug("frame captioned",
		logging.Int("index", sample.Index),
		logging.Int("percent", report.Percent()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return frameOutcome{report: report}
}
