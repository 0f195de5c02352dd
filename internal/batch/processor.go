// Package batch runs the categorization workflow over a transaction list in
// one of three processing modes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
)

// Categorizer produces categorization results for a batch.
type Categorizer interface {
	CategorizeBatch(ctx context.Context, txns []model.Transaction, categories []model.Category) (*model.BatchResult, error)
}

// ProgressReporter is advanced once per transaction in APPLY mode.
type ProgressReporter interface {
	Add(num int) error
}

// Processor wraps a Categorizer with a processing mode and update strategy.
// Its mode never changes after construction.
type Processor struct {
	workflow Categorizer
	sink     service.CategorySink
	progress ProgressReporter
	logger   *slog.Logger
	mode     model.ProcessingMode
	strategy model.UpdateStrategy
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the processor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgress reports APPLY progress, for example to a progress bar.
func WithProgress(progress ProgressReporter) Option {
	return func(p *Processor) {
		p.progress = progress
	}
}

// NewProcessor validates the mode and strategy up front. A sink is required
// only in APPLY mode.
func NewProcessor(workflow Categorizer, sink service.CategorySink, mode model.ProcessingMode, strategy model.UpdateStrategy, opts ...Option) (*Processor, error) {
	if workflow == nil {
		return nil, fmt.Errorf("%w: categorizer is required", common.ErrInvalidConfig)
	}

	switch mode {
	case model.ProcessingDryRun, model.ProcessingValidate:
	case model.ProcessingApply:
		if sink == nil {
			return nil, fmt.Errorf("%w: apply mode requires a category sink", common.ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: processing mode %q", common.ErrUnknownMode, mode)
	}

	if _, err := ShouldProcess(strategy, model.Transaction{}, nil); err != nil {
		return nil, err
	}

	p := &Processor{
		workflow: workflow,
		sink:     sink,
		mode:     mode,
		strategy: strategy,
		logger:   slog.Default().With("component", "batch"),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Mode returns the processing mode.
func (p *Processor) Mode() model.ProcessingMode {
	return p.mode
}

// Process filters the transactions, categorizes them and, in APPLY mode,
// writes permitted results to the sink. When categorization is only partially
// successful the remaining results are still processed and the error is
// returned alongside the result.
func (p *Processor) Process(ctx context.Context, txns []model.Transaction, categories []model.Category, filter service.TransactionFilter) (*model.BatchResult, error) {
	selected := ApplyFilter(txns, filter)

	p.logger.Info("Processing transactions",
		"mode", p.mode,
		"strategy", p.strategy,
		"loaded", len(txns),
		"selected", len(selected))

	result, categorizeErr := p.workflow.CategorizeBatch(ctx, selected, categories)
	if result == nil {
		return nil, categorizeErr
	}

	var applyErrs []error
	for _, txn := range selected {
		detail := result.Details[txn.ID]

		switch p.mode {
		case model.ProcessingDryRun:
			result.WouldCategorize++

		case model.ProcessingValidate:
			candidate := Candidate(detail)
			if candidate != "" && !model.SameCategory(candidate, txn.CategoryTitle()) {
				result.WouldChange++
			} else {
				result.Unchanged++
			}

		case model.ProcessingApply:
			if err := ctx.Err(); err != nil {
				return result, errors.Join(categorizeErr, err)
			}
			if err := p.apply(ctx, txn, detail, result); err != nil {
				applyErrs = append(applyErrs, err)
			}
			if p.progress != nil {
				_ = p.progress.Add(1)
			}
		}
	}

	p.logger.Info("Processing complete",
		"mode", p.mode,
		"total", result.Total,
		"applied", result.Applied,
		"upgraded", result.Upgraded,
		"skipped", result.Skipped,
		"would_change", result.WouldChange,
		"unchanged", result.Unchanged)

	return result, errors.Join(categorizeErr, errors.Join(applyErrs...))
}

func (p *Processor) apply(ctx context.Context, txn model.Transaction, detail *model.CategorizationResult, result *model.BatchResult) error {
	decision, err := ShouldProcess(p.strategy, txn, detail)
	if err != nil {
		return err
	}
	if !decision.Process {
		result.Skip(decision.Reason)
		return nil
	}

	result.Processed++

	candidate := Candidate(detail)
	switch {
	case candidate == "":
		result.Skip(ReasonNoCategory)
		return nil
	case detail.NeedsReview || detail.IsConflict():
		result.Skip(ReasonNeedsReview)
		return nil
	}

	update := service.Update{
		TransactionID:    txn.ID,
		Hash:             txn.Hash,
		Category:         candidate,
		PreviousCategory: txn.CategoryTitle(),
		Source:           detail.Source,
		Labels:           detail.Labels,
		MatchedRules:     detail.MatchedRules,
		Confidence:       detail.Confidence,
	}
	if err := p.sink.ApplyCategorization(ctx, update); err != nil {
		result.Failed++
		detail.Error = err.Error()
		p.logger.Error("Failed to apply categorization",
			"transaction_id", txn.ID,
			"category", candidate,
			"error", err)
		return fmt.Errorf("apply %s: %w", txn.ID, err)
	}

	result.Applied++
	if recorded, ok := txn.RecordedConfidence(); ok && detail.Confidence > recorded {
		result.Upgraded++
	}

	return nil
}
