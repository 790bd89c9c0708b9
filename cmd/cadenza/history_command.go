package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cadenza/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past composition runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q", args[0])
				}
				return renderRunDetail(cmd, store, id)
			}
			return renderRunList(cmd, store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func renderRunList(cmd *cobra.Command, store *ledger.Store, limit int) error {
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.FinalName,
			run.Strategy,
			strconv.Itoa(run.UnitCount),
			formatSeconds(run.TotalSeconds),
			string(run.Status),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Started", "Final", "Strategy", "Units", "Length", "Status"},
		rows,
		1, 5, 6,
	))
	return nil
}

func renderRunDetail(cmd *cobra.Command, store *ledger.Store, id int64) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d: %s (%s)\n", run.ID, run.FinalName, run.Status)
	fmt.Fprintf(out, "Prompt: %s\n", run.BasePrompt)
	fmt.Fprintf(out, "Strategy: %s", run.Strategy)
	if run.Structure != "" {
		fmt.Fprintf(out, " (%s)", run.Structure)
	}
	fmt.Fprintln(out)
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
	}

	units, err := store.RunUnits(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		fmt.Fprintln(out, "No units recorded")
		return nil
	}

	rows := make([][]string, 0, len(units))
	for _, unit := range units {
		source := "generated"
		if unit.Resumed {
			source = "reused"
		}
		rows = append(rows, []string{
			strconv.Itoa(unit.Ordinal),
			unit.Label,
			formatSeconds(unit.Seconds),
			unit.State,
			source,
			unit.Elapsed.Round(time.Second).String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Label", "Length", "State", "Source", "Elapsed"},
		rows,
		1, 3, 6,
	))
	return nil
}

func formatSeconds(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Minute {
		return d.String()
	}
	return fmt.Sprintf("%ds", seconds)
}
