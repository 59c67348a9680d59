// Package audioevidence turns the spoken track of acquired media into a
// transcript. Failures never abort a run: they come back in-band as a
// degraded AudioEvidence whose transcript carries the error marker.
package audioevidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipguard/internal/logging"
	"clipguard/internal/moderation"
	"clipguard/internal/services/whisperx"
)

// ErrorPrefix leads the transcript of a failed transcription.
const ErrorPrefix = "Erro na transcrição: "

const (
	audioDirName  = "audio"
	audioFileName = "audio.wav"
)

// Transcriber decodes and transcribes audio. *whisperx.Service implements it.
type Transcriber interface {
	ExtractFullAudio(ctx context.Context, source, dest string) error
	TranscribeFile(ctx context.Context, source, outputDir string) (whisperx.TranscribeResult, error)
}

// Extractor produces AudioEvidence for acquired media.
type Extractor struct {
	transcriber Transcriber
	timeout     time.Duration
	logger      *slog.Logger
}

// NewExtractor wraps transcriber. A zero timeout leaves the caller's context
// as the only bound.
func NewExtractor(transcriber Transcriber, timeout time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{transcriber: transcriber, timeout: timeout, logger: logger}
}

// Transcribe decodes the audio track of media into workDir and transcribes it.
func (e *Extractor) Transcribe(ctx context.Context, media moderation.AcquiredMedia, workDir string) moderation.AudioEvidence {
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()

	text, err := e.transcribe(ctx, media.LocalPath, workDir)
	if err != nil {
		logging.WarnWithContext(logger, "transcription failed; continuing with degraded audio evidence", "transcription_failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldErrorHint, "check ffmpeg/uvx availability and the whisperx log output"),
		)
		return Degraded(err)
	}

	logger.Info("audio transcribed",
		logging.String(logging.FieldEventType, "audio_transcribed"),
		logging.Int("transcript_chars", len([]rune(text))),
		logging.Duration("elapsed", time.Since(started)),
	)
	return moderation.AudioEvidence{Transcript: text}
}

func (e *Extractor) transcribe(ctx context.Context, source, workDir string) (string, error) {
	if e.transcriber == nil {
		return "", errors.New("no transcriber configured")
	}
	if strings.TrimSpace(source) == "" {
		return "", errors.New("media path required")
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	dir := filepath.Join(workDir, audioDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare audio dir: %w", err)
	}
	wav := filepath.Join(dir, audioFileName)

	if err := e.transcriber.ExtractFullAudio(runCtx, source, wav); err != nil {
		return "", e.timeoutOr(runCtx, err)
	}
	result, err := e.transcriber.TranscribeFile(runCtx, wav, dir)
	if err != nil {
		return "", e.timeoutOr(runCtx, err)
	}
	return strings.TrimSpace(result.Text), nil
}

func (e *Extractor) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", e.timeout, err)
	}
	return err
}

// Degraded builds the in-band evidence for a failed transcription.
func Degraded(err error) moderation.AudioEvidence {
	cause := "unknown error"
	if err != nil {
		cause = err.Error()
	}
	return moderation.AudioEvidence{Transcript: ErrorPrefix + cause, Err: cause}
}
