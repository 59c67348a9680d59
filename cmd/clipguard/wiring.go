package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"clipguard/internal/acquisition"
	"clipguard/internal/adjudication"
	"clipguard/internal/audioevidence"
	"clipguard/internal/config"
	"clipguard/internal/media/frames"
	"clipguard/internal/moderation"
	"clipguard/internal/pipeline"
	"clipguard/internal/rules"
	"clipguard/internal/services/llm"
	"clipguard/internal/services/vision"
	"clipguard/internal/services/whisperx"
	"clipguard/internal/services/ytdlp"
	"clipguard/internal/visualevidence"
	"clipguard/internal/workspace"
)

// buildOrchestrator assembles the moderation pipeline from cfg. reg may be
// nil, in which case no metrics are recorded.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*pipeline.Orchestrator, error) {
	ruleSet, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	downloader := ytdlp.New(ytdlp.Config{
		Binary:         cfg.Download.Binary,
		Format:         cfg.Download.Format,
		UserAgent:      cfg.Download.UserAgent,
		SkipCertCheck:  cfg.Download.SkipCertCheck,
		TimeoutSeconds: cfg.Download.TimeoutSeconds,
	})
	acquirer := acquisition.New(downloader, acquisition.Config{
		CookiesDir: cfg.Paths.CookiesDir,
		Retries:    cfg.Download.Retries,
	}, acquisition.WithLogger(logger))

	transcriber := whisperx.NewService(whisperx.Config{
		Model:       cfg.Transcription.Model,
		Language:    cfg.Transcription.Language,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
	}, cfg.FFmpegBinary())
	audio := audioevidence.NewExtractor(transcriber, cfg.TranscriptionTimeout(), logger)

	temperature := cfg.Vision.Temperature
	captioner := vision.NewService(vision.Config{
		BaseURL:        cfg.Vision.BaseURL,
		APIKey:         cfg.Vision.APIKey,
		Model:          cfg.Vision.Model,
		Temperature:    &temperature,
		MaxTokens:      cfg.Vision.MaxTokens,
		TimeoutSeconds: cfg.Vision.TimeoutSeconds,
	})
	visual := visualevidence.NewExtractor(
		frames.NewSource(cfg.FFprobeBinary(), cfg.FFmpegBinary()),
		captioner,
		visualevidence.Config{
			FrameWidth:  cfg.Vision.FrameWidth,
			Concurrency: len(moderation.SampleFractions),
		},
		logger,
	)

	judgeClient := llm.NewClient(llm.Config{
		APIKey:         cfg.Judge.APIKey,
		BaseURL:        cfg.Judge.BaseURL,
		Model:          cfg.Judge.Model,
		Referer:        cfg.Judge.Referer,
		Title:          cfg.Judge.Title,
		TimeoutSeconds: cfg.Judge.TimeoutSeconds,
	})
	judge := adjudication.NewEngine(judgeClient, cfg.JudgeTimeout(), logger)

	var metrics *pipeline.Metrics
	if reg != nil {
		metrics = pipeline.NewMetrics(reg)
	}

	return pipeline.New(pipeline.Options{
		Acquirer:  acquirer,
		Audio:     audio,
		Visual:    visual,
		Judge:     judge,
		Rules:     ruleSet,
		Workspace: workspace.NewManager(cfg.Paths.WorkDir, logger),
		Logger:    logger,
		Metrics:   metrics,
		Parallel:  cfg.Pipeline.ParallelExtraction,
	})
}
