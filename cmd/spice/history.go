package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-sort/internal/cli"
	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past categorization runs",
		Example: `  spice history
  spice history --run 6f1c2a9e-...
  spice history --stats`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().String("run", "", "show the decisions of one run")
	cmd.Flags().Int("limit", 20, "number of runs to list")
	cmd.Flags().Bool("stats", false, "show how often each rule fired")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, settings.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		ruleStats, err := store.GetRuleStats(ctx)
		if err != nil {
			return err
		}
		if len(ruleStats) == 0 {
			fmt.Fprintln(out, cli.FormatInfo("No rule has fired yet"))
			return nil
		}
		fmt.Fprintln(out, cli.RenderRuleStats(ruleStats))
		return nil
	}

	if id, _ := cmd.Flags().GetString("run"); id != "" {
		run, err := store.GetRun(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("No run with id %q", id), err)
		}
		if err != nil {
			return err
		}
		decisions, err := store.GetDecisions(ctx, run.ID)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, cli.RenderRuns([]model.Run{*run}))
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderStoredDecisions(decisions))
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.GetRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No runs recorded yet"))
		return nil
	}
	fmt.Fprintln(out, cli.RenderRuns(runs))
	return nil
}

// renderStoredDecisions reuses the live decision table for persisted rows.
func renderStoredDecisions(decisions []model.Decision) string {
	result := model.NewBatchResult()
	txns := make([]model.Transaction, 0, len(decisions))
	for i := range decisions {
		d := decisions[i].CategorizationResult
		result.Details[d.TransactionID] = &d
		txns = append(txns, model.Transaction{ID: d.TransactionID})
	}
	return cli.RenderDecisions(txns, result)
}
