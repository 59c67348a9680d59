package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipguard/internal/workspace"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove work directories left behind by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			result := workspace.NewManager(cfg.Paths.WorkDir, logger).Sweep(cmd.Context())

			if ctx.jsonMode() {
				errs := make([]map[string]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, map[string]string{"path": e.Path, "error": e.Error.Error()})
				}
				removed := result.Removed
				if removed == nil {
					removed = []string{}
				}
				return writeJSON(cmd, map[string]any{"removed": removed, "errors": errs})
			}

			out := cmd.OutOrStdout()
			if len(result.Removed) == 0 {
				fmt.Fprintln(out, "No stale work directories")
			}
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "Failed to remove %s: %v\n", e.Path, e.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d work directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}
}
