package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"clipguard/internal/moderation"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <url>",
		Short: "Moderate a single video and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			orchestrator, err := buildOrchestrator(cfg, logger, nil)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result := orchestrator.Run(runCtx, moderation.Request{SourceURL: strings.TrimSpace(args[0])})
			if errors.Is(runCtx.Err(), context.Canceled) {
				return context.Canceled
			}

			if ctx.jsonMode() {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderResult(result, shouldColorize(cmd.OutOrStdout())))
			}
			if !result.Succeeded() {
				return fmt.Errorf("analysis failed: %s", result.Message)
			}
			return nil
		},
	}
}
