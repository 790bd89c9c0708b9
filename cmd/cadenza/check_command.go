package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cadenza/internal/preflight"
	"cadenza/internal/prompts"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var strategyFlag string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify backend, ffmpeg, and creative service availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			strategy, err := resolveStrategy(strategyFlag, "")
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, strategy)
			renderPreflight(cmd.OutOrStdout(), results)
			if preflight.HasFailures(results) {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&strategyFlag, "strategy", string(prompts.StrategyAISequential),
		"Strategy whose dependencies should be checked")
	return cmd
}

func renderPreflight(out io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "FAIL"
		if result.Passed {
			status = "OK"
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows))
}
