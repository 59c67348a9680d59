package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"clipguard/internal/deps"
	"clipguard/internal/httpapi"
	"clipguard/internal/logging"
	"clipguard/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the moderation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for _, missing := range deps.Missing(preflight.CheckSystemDeps(cfg)) {
				logging.WarnWithContext(logger, "required binary unavailable", "dependency_missing",
					logging.String("dependency", missing.Name),
					logging.String("command", missing.Command),
					logging.String(logging.FieldErrorHint, missing.Detail),
					logging.String(logging.FieldImpact, "requests needing it will fail or degrade"),
				)
			}
			for _, failed := range preflight.Failed(preflight.RunAll(runCtx, cfg)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", failed.Name),
					logging.String(logging.FieldErrorHint, failed.Detail),
					logging.String(logging.FieldImpact, "affected stages will degrade per request"),
				)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			orchestrator, err := buildOrchestrator(cfg, logger, reg)
			if err != nil {
				return err
			}

			apiCfg := httpapi.Config{
				Bind:               cfg.API.Bind,
				MaxConcurrent:      cfg.API.MaxConcurrent,
				RateLimitPerMinute: cfg.API.RateLimitPerMinute,
				CORSOrigins:        cfg.API.CORSOrigins,
			}
			if bind != "" {
				apiCfg.Bind = bind
			}
			server := httpapi.New(apiCfg, orchestrator, reg, reg, logger)
			if err := server.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())

			<-runCtx.Done()
			server.Stop()
			logger.Info("clipguard shutting down", logging.String(logging.FieldEventType, "shutdown"))
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind (host:port)")
	return cmd
}
