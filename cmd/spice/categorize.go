package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-spice-must-sort/internal/batch"
	"github.com/Veraticus/the-spice-must-sort/internal/cli"
	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/config"
	"github.com/Veraticus/the-spice-must-sort/internal/engine"
	"github.com/Veraticus/the-spice-must-sort/internal/llm"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/plaid"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
	"github.com/Veraticus/the-spice-must-sort/internal/simplefin"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize transactions with rules and an optional LLM",
		Long: `Categorize transactions from a JSON feed, an OFX/QFX export, Plaid or a
SimpleFIN bridge.

Rules are evaluated first. Transactions no rule can place are escalated to the
configured classifier, grouped by merchant. A rule that disagrees with a
category you already chose never overwrites it; the disagreement is flagged
for review instead.

Processing modes:
  dry_run   report what would be categorized (default)
  validate  report which categories would change
  apply     write categorizations to the ledger`,
		Example: `  spice categorize --transactions export.json
  spice categorize --ofx checking.qfx --mode apply --strategy upgrade_confidence
  spice categorize --plaid --from 2025-01-01 --account Checking --details`,
		RunE: runCategorize,
	}

	cmd.Flags().String("transactions", "", "JSON transaction feed")
	cmd.Flags().String("ofx", "", "OFX/QFX export")
	cmd.Flags().Bool("plaid", false, "fetch transactions from Plaid")
	cmd.Flags().Bool("simplefin", false, "fetch transactions from a SimpleFIN bridge")
	cmd.Flags().String("mode", "", "processing mode: dry_run, validate, apply")
	cmd.Flags().String("strategy", "", "update strategy: skip_existing, upgrade_confidence, replace_if_different, replace_all")
	cmd.Flags().String("intelligence", "", "intelligence mode: conservative, smart, aggressive")
	cmd.Flags().String("from", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last date to include (YYYY-MM-DD)")
	cmd.Flags().StringSlice("account", nil, "only include these accounts (repeatable)")
	cmd.Flags().Int("limit", 0, "maximum transactions to process (0 = no limit)")
	cmd.Flags().Bool("details", false, "show one row per transaction")

	cmd.MarkFlagsMutuallyExclusive("transactions", "ofx", "plaid", "simplefin")
	cmd.MarkFlagsOneRequired("transactions", "ofx", "plaid", "simplefin")

	_ = viper.BindPFlag("categorization.processing_mode", cmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("categorization.update_strategy", cmd.Flags().Lookup("strategy"))
	_ = viper.BindPFlag("categorization.intelligence_mode", cmd.Flags().Lookup("intelligence"))

	return cmd
}

func runCategorize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	source, err := selectSource(ctx, cmd, settings)
	if err != nil {
		return err
	}

	ruleSet, rulesEngine, err := loadRules(settings.RulesPath)
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

	categories, err := store.EnsureCategories(ctx, ruleSet.Categories())
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	txns, err := source.Transactions(ctx, filter)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		return common.NewUserError("No transactions found in "+source.Name(), common.ErrNoTransactions)
	}
	txns, err = store.AnnotateConfidence(ctx, txns)
	if err != nil {
		return err
	}

	classifier, err := llm.NewFromConfig(settings.LLM)
	if err != nil {
		return err
	}
	if closer, ok := classifier.(interface{ Close() error }); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	workflow, err := engine.NewWorkflow(rulesEngine, classifier, settings.Intelligence)
	if err != nil {
		return err
	}

	opts := []batch.Option{}
	if settings.Processing == model.ProcessingApply {
		opts = append(opts, batch.WithProgress(cli.NewProgressBar(cmd.ErrOrStderr(), len(batch.ApplyFilter(txns, filter)))))
	}
	processor, err := batch.NewProcessor(workflow, store, settings.Processing, settings.Strategy, opts...)
	if err != nil {
		return err
	}

	run := &model.Run{
		ID:           uuid.NewString(),
		Source:       source.Name(),
		Mode:         settings.Processing,
		Strategy:     settings.Strategy,
		Intelligence: settings.Intelligence,
	}
	if err := store.StartRun(ctx, run); err != nil {
		return err
	}

	slog.Info("Starting categorization run",
		"run_id", run.ID,
		"source", run.Source,
		"mode", run.Mode,
		"strategy", run.Strategy,
		"intelligence", run.Intelligence,
		"rules", ruleSet.Len())

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	runCtx := handler.HandleInterrupts(ctx, settings.Processing == model.ProcessingApply)
	defer handler.Stop()

	result, processErr := processor.Process(runCtx, txns, categories, filter)
	if processErr != nil {
		run.Error = processErr.Error()
	}

	// The run context may already be canceled; the ledger entry is still written.
	if err := store.FinishRun(context.Background(), run, result); err != nil {
		slog.Error("Failed to record run", "run_id", run.ID, "error", err)
	}

	if result == nil {
		return processErr
	}

	fmt.Fprintln(out, cli.RenderSummary(settings.Processing, result))
	if details, _ := cmd.Flags().GetBool("details"); details {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderDecisions(batch.ApplyFilter(txns, filter), result))
	}
	fmt.Fprintln(out, cli.FormatInfo("Run "+run.ID))

	if handler.WasInterrupted() {
		return nil
	}
	return processErr
}

func filterFromFlags(cmd *cobra.Command) (service.TransactionFilter, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	accounts, _ := cmd.Flags().GetStringSlice("account")
	limit, _ := cmd.Flags().GetInt("limit")

	start, err := parseDay(from, false)
	if err != nil {
		return service.TransactionFilter{}, err
	}
	end, err := parseDay(to, true)
	if err != nil {
		return service.TransactionFilter{}, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return service.TransactionFilter{}, fmt.Errorf("%w: --to is before --from", common.ErrInvalidConfig)
	}
	if limit < 0 {
		return service.TransactionFilter{}, fmt.Errorf("%w: --limit must not be negative", common.ErrInvalidConfig)
	}

	return service.TransactionFilter{
		StartDate: start,
		EndDate:   end,
		Accounts:  accounts,
		Limit:     limit,
	}, nil
}

func selectSource(ctx context.Context, cmd *cobra.Command, settings config.Settings) (service.TransactionSource, error) {
	if path, _ := cmd.Flags().GetString("transactions"); path != "" {
		return fileSource(config.ExpandPath(path)), nil
	}
	if path, _ := cmd.Flags().GetString("ofx"); path != "" {
		return fileSource(config.ExpandPath(path)), nil
	}
	if useSimpleFIN, _ := cmd.Flags().GetBool("simplefin"); useSimpleFIN {
		client, err := simplefin.NewClient(ctx, settings.SimpleFIN)
		if err != nil {
			return nil, common.NewUserError("SimpleFIN is not configured; set simplefin.access_url or simplefin.token", err)
		}
		return simplefin.NewSource(client), nil
	}

	client, err := plaid.NewClient(settings.Plaid)
	if err != nil {
		return nil, common.NewUserError("Plaid is not configured; set plaid.client_id, plaid.secret and plaid.access_token", err)
	}
	return plaid.NewSource(client), nil
}
