package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipguard/internal/rules"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the moderation rule set",
	}
	rulesCmd.AddCommand(newRulesShowCommand(ctx))
	return rulesCmd
}

func newRulesShowCommand(ctx *commandContext) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the rules the judge applies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.Rules.Path
			}
			rs, err := rules.Load(path)
			if err != nil {
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, struct {
					Source string       `json:"source"`
					Rules  []rules.Rule `json:"rules"`
					Text   string       `json:"text"`
				}{rs.Source(), rs.Rules(), rs.Text()})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s\n", rs.Source())
			if rs.Len() == 0 {
				fmt.Fprintln(out, rs.Text())
				return nil
			}
			rows := make([][]string, 0, rs.Len())
			for i, rule := range rs.Rules() {
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), rule.ID, rule.Kind.Label(), rule.Text})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				headers: []string{"#", "ID", "Kind", "Rule"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
				wrap:    []int{3},
			}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "Rule file to load instead of rules.path")
	return cmd
}
