package adjudication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clipguard/internal/logging"
	"clipguard/internal/moderation"
	"clipguard/internal/rules"
)

// FailurePrefix leads the reason of an UNKNOWN verdict.
const FailurePrefix = "Falha na adjudicação: "

// Completer sends one system/user prompt pair and returns the reply.
// *llm.Client implements it.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Engine produces verdicts.
type Engine struct {
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// NewEngine wraps completer. A zero timeout leaves the caller's context as
// the only bound.
func NewEngine(completer Completer, timeout time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{completer: completer, timeout: timeout, logger: logger}
}

// Adjudicate judges the evidence against rs. It never returns an error: a
// failed call yields an UNKNOWN verdict carrying the cause.
func (e *Engine) Adjudicate(ctx context.Context, rs *rules.RuleSet, audio moderation.AudioEvidence, reports []moderation.VisualReport) moderation.Verdict {
	logger := logging.WithContext(ctx, e.logger)
	if e.completer == nil {
		return unknown(errors.New("no judge configured"))
	}

	prompt := BuildPrompt(rs, audio, reports)

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := e.completer.CompleteJSON(callCtx, prompt.System, prompt.User)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", e.timeout, err)
		}
		logging.ErrorWithContext(logger, "judge call failed", "adjudication_failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldErrorHint, "check judge.base_url, judge.model and the judge API key"),
		)
		return unknown(err)
	}

	verdict := ParseVerdict(raw)
	logger.Info("verdict issued",
		logging.Args(append(logging.DecisionAttrs("verdict", string(verdict.Status), verdict.Reason),
			logging.String(logging.FieldEventType, "verdict_issued"),
			logging.Bool("audio_degraded", audio.Degraded()),
			logging.Int("visual_reports", len(reports)),
			logging.Duration("elapsed", time.Since(started)),
		)...)...,
	)
	return verdict
}

func unknown(err error) moderation.Verdict {
	return moderation.Verdict{Status: moderation.VerdictUnknown, Reason: FailurePrefix + err.Error()}
}
