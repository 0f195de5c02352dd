// Package engine decides the category of each transaction by combining rule
// matches, existing categories and an optional external classifier.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/merchant"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/rules"
)

// Workflow produces categorization decisions for transactions.
type Workflow struct {
	rules      *rules.Engine
	classifier Classifier
	normalize  merchant.Normalizer
	logger     *slog.Logger
	policy     Policy
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the workflow logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithNormalizer sets the normalizer used to group escalations by merchant.
func WithNormalizer(n merchant.Normalizer) Option {
	return func(w *Workflow) {
		if n != nil {
			w.normalize = n
		}
	}
}

// NewWorkflow creates a workflow. A nil classifier disables escalation and
// validation; unmatched transactions then come back with source "none".
func NewWorkflow(rulesEngine *rules.Engine, classifier Classifier, mode model.IntelligenceMode, opts ...Option) (*Workflow, error) {
	if rulesEngine == nil {
		return nil, fmt.Errorf("%w: rule engine is required", common.ErrInvalidConfig)
	}

	policy, err := PolicyFor(mode)
	if err != nil {
		return nil, err
	}

	w := &Workflow{
		rules:      rulesEngine,
		classifier: classifier,
		policy:     policy,
		normalize:  merchant.Normalize,
		logger:     slog.Default().With("component", "workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Policy returns the active intelligence policy.
func (w *Workflow) Policy() Policy {
	return w.policy
}

// CategorizeSingle categorizes one transaction.
func (w *Workflow) CategorizeSingle(ctx context.Context, txn model.Transaction, categories []model.Category) (*model.CategorizationResult, error) {
	batch, err := w.CategorizeBatch(ctx, []model.Transaction{txn}, categories)
	if batch == nil {
		return nil, err
	}
	return batch.Details[txn.ID], err
}

// pending tracks a transaction waiting on the classifier.
type pending struct {
	result *model.CategorizationResult
	txn    model.Transaction
}

// escalation is one classifier request on behalf of every transaction from the
// same merchant.
type escalation struct {
	merchant string
	members  []pending
}

// CategorizeBatch categorizes every transaction. On classifier failure the
// returned BatchResult is partial and the error wraps ErrClassificationFailed.
func (w *Workflow) CategorizeBatch(ctx context.Context, txns []model.Transaction, categories []model.Category) (*model.BatchResult, error) {
	if err := checkUniqueIDs(txns); err != nil {
		return nil, err
	}

	start := time.Now()
	batch := model.NewBatchResult()
	batch.Total = len(txns)
	if len(txns) == 0 {
		return batch, nil
	}

	w.logger.Info("Starting categorization",
		"transactions", len(txns),
		"mode", w.policy.Mode,
		"categories", len(categories))

	var (
		validations []pending
		escalations []*escalation
		byMerchant  = make(map[string]*escalation)
	)

	for _, txn := range txns {
		m := w.rules.Evaluate(txn)
		result := &model.CategorizationResult{
			TransactionID: txn.ID,
			Labels:        m.Labels,
			MatchedRules:  m.MatchedRules,
		}
		batch.Details[txn.ID] = result

		if m.Any() {
			batch.RuleMatches++
		}

		switch {
		case !txn.HasCategory() && m.HasCategory():
			result.Category = canonicalTitle(categories, m.Category)
			result.Confidence = m.Confidence
			result.Source = model.SourceRule
			if w.classifier != nil && w.policy.NeedsValidation(m.Confidence) {
				validations = append(validations, pending{txn: txn, result: result})
			}

		case txn.HasCategory() && !m.HasCategory():
			result.Category = txn.CategoryTitle()
			result.Source = model.SourceExisting
			if c, ok := txn.RecordedConfidence(); ok {
				result.Confidence = c
			}

		case txn.HasCategory() && model.SameCategory(txn.CategoryTitle(), m.Category):
			result.Category = txn.CategoryTitle()
			result.Confidence = m.Confidence
			result.Source = model.SourceRule

		case txn.HasCategory():
			result.Category = txn.CategoryTitle()
			result.SuggestedCategory = canonicalTitle(categories, m.Category)
			result.Confidence = m.Confidence
			result.Source = model.SourceConflict
			result.NeedsReview = true
			batch.Conflicts++
			w.logger.Debug("Rule conflicts with existing category",
				"transaction_id", txn.ID,
				"existing", result.Category,
				"suggested", result.SuggestedCategory,
				"rule", m.CategoryRule)

		default:
			result.Source = model.SourceNone
			if w.classifier == nil {
				continue
			}
			key := w.merchantKey(txn)
			esc, ok := byMerchant[key]
			if !ok {
				esc = &escalation{merchant: key}
				byMerchant[key] = esc
				escalations = append(escalations, esc)
			}
			esc.members = append(esc.members, pending{txn: txn, result: result})
		}
	}

	titles := model.CategoryTitles(categories)
	err := w.validate(ctx, validations, titles, categories, batch)
	if err == nil {
		err = w.escalate(ctx, escalations, titles, categories, batch)
	} else {
		failEscalations(escalations, err, batch)
	}

	w.logger.Info("Categorization complete",
		"total", batch.Total,
		"rule_matches", batch.RuleMatches,
		"llm_categorized", batch.LLMCategorized,
		"llm_validated", batch.LLMValidated,
		"conflicts", batch.Conflicts,
		"failed", batch.Failed,
		"duration", time.Since(start))

	if err != nil {
		batch.Partial = true
		return batch, fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
	}

	return batch, nil
}

// merchantKey groups transactions for the classifier. Payees that normalize
// to nothing fall back to the raw payee, then to the transaction id, so
// unrelated transactions never share an answer.
func (w *Workflow) merchantKey(txn model.Transaction) string {
	if key := w.normalize(txn.Payee); key != "" {
		return key
	}
	if raw := strings.ToLower(strings.TrimSpace(txn.Payee)); raw != "" {
		return raw
	}
	return "id:" + txn.ID
}

// validate asks the classifier to confirm medium-confidence rule matches.
// A confirmation raises the confidence; a disagreement keeps the rule result
// and flags it for review.
func (w *Workflow) validate(ctx context.Context, items []pending, titles []string, categories []model.Category, batch *model.BatchResult) error {
	for start := 0; start < len(items); start += w.policy.BatchSize {
		chunk := items[start:min(start+w.policy.BatchSize, len(items))]

		requests := make([]ClassificationRequest, len(chunk))
		for i, p := range chunk {
			requests[i] = ClassificationRequest{
				Transaction: p.txn,
				Merchant:    w.merchantKey(p.txn),
				Candidate:   p.result.Category,
			}
		}

		suggestions, err := w.classify(ctx, requests, titles)
		if err != nil {
			for _, p := range items[start:] {
				p.result.NeedsReview = true
				p.result.Error = err.Error()
				batch.Failed++
			}
			return err
		}

		for _, p := range chunk {
			s, ok := suggestions[p.txn.ID]
			if !ok || s.Category == "" {
				continue
			}

			batch.LLMValidated++
			p.result.LLMUsed = true
			if model.SameCategory(s.Category, p.result.Category) {
				p.result.Validated = true
				p.result.Confidence = max(p.result.Confidence, ConfirmedConfidence)
				continue
			}

			p.result.NeedsReview = true
			p.result.SuggestedCategory = canonicalTitle(categories, s.Category)
		}
	}

	return nil
}

// escalate asks the classifier to categorize transactions no rule matched,
// one request per merchant.
func (w *Workflow) escalate(ctx context.Context, groups []*escalation, titles []string, categories []model.Category, batch *model.BatchResult) error {
	for start := 0; start < len(groups); start += w.policy.BatchSize {
		chunk := groups[start:min(start+w.policy.BatchSize, len(groups))]

		requests := make([]ClassificationRequest, len(chunk))
		for i, g := range chunk {
			requests[i] = ClassificationRequest{
				Transaction: g.members[0].txn,
				Merchant:    g.merchant,
			}
		}

		suggestions, err := w.classify(ctx, requests, titles)
		if err != nil {
			failEscalations(groups[start:], err, batch)
			return err
		}

		for _, g := range chunk {
			s, ok := suggestions[g.members[0].txn.ID]
			for _, p := range g.members {
				p.result.LLMUsed = true
				if !ok || s.Category == "" {
					continue
				}

				category, known := model.FindCategory(categories, s.Category)
				p.result.Category = s.Category
				if known {
					p.result.Category = category.Title
				}
				p.result.Confidence = s.Confidence
				p.result.Source = model.SourceLLM
				p.result.NeedsReview = w.policy.AlwaysReview || (len(categories) > 0 && !known)
				batch.LLMCategorized++
			}
		}
	}

	return nil
}

func (w *Workflow) classify(ctx context.Context, requests []ClassificationRequest, titles []string) (map[string]Suggestion, error) {
	w.logger.Debug("Calling classifier", "requests", len(requests))

	suggestions, err := w.classifier.ClassifyBatch(ctx, requests, titles)
	if err != nil {
		w.logger.Error("Classifier call failed", "requests", len(requests), "error", err)
		return nil, err
	}

	out := make(map[string]Suggestion, len(suggestions))
	for _, s := range suggestions {
		out[s.TransactionID] = s
	}
	return out, nil
}

func failEscalations(groups []*escalation, err error, batch *model.BatchResult) {
	for _, g := range groups {
		for _, p := range g.members {
			p.result.Source = model.SourceFailed
			p.result.Error = err.Error()
			batch.Failed++
		}
	}
}

func checkUniqueIDs(txns []model.Transaction) error {
	seen := make(map[string]struct{}, len(txns))
	for _, t := range txns {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %q", common.ErrDuplicateTransactionID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// canonicalTitle returns the known category's spelling when one matches.
func canonicalTitle(categories []model.Category, title string) string {
	if c, ok := model.FindCategory(categories, title); ok {
		return c.Title
	}
	return title
}
