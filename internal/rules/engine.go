package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/merchant"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// Match is the outcome of running both rule phases against one transaction.
type Match struct {
	Category     string   `json:"category,omitempty"`
	CategoryRule string   `json:"category_rule,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	MatchedRules []string `json:"matched_rules,omitempty"`
	Confidence   int      `json:"confidence"`
}

// HasCategory reports whether a category rule fired.
func (m Match) HasCategory() bool {
	return m.Category != ""
}

// Any reports whether any rule, category or label, fired.
func (m Match) Any() bool {
	return len(m.MatchedRules) > 0
}

// compiledCategoryRule caches the normalized forms of a rule's patterns.
type compiledCategoryRule struct {
	rule       CategoryRule
	patterns   []string
	exclusions []string
}

// Engine evaluates a RuleSet. It is read-only after construction and safe to
// share between goroutines.
type Engine struct {
	set           *RuleSet
	normalize     merchant.Normalizer
	logger        *slog.Logger
	categoryRules []compiledCategoryRule
}

// Option configures an Engine.
type Option func(*Engine)

// WithNormalizer replaces the payee normalizer used for pattern matching.
func WithNormalizer(n merchant.Normalizer) Option {
	return func(e *Engine) {
		if n != nil {
			e.normalize = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine prepares a rule set for evaluation.
func NewEngine(set *RuleSet, opts ...Option) *Engine {
	if set == nil {
		set = &RuleSet{}
	}

	e := &Engine{
		set:       set,
		normalize: merchant.Normalize,
		logger:    slog.Default().With("component", "rules"),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.categoryRules = make([]compiledCategoryRule, 0, len(set.CategoryRules))
	for _, r := range set.CategoryRules {
		e.categoryRules = append(e.categoryRules, compiledCategoryRule{
			rule:       r,
			patterns:   e.normalizeAll(r.Patterns),
			exclusions: e.normalizeAll(r.Exclusions),
		})
		for _, p := range append(append([]string{}, r.Patterns...), r.Exclusions...) {
			if e.normalize(p) == "" {
				e.logger.Warn("Ignoring pattern that normalizes to nothing", "rule", r.Name, "pattern", p)
			}
		}
	}

	return e
}

// RuleSet returns the rules this engine evaluates.
func (e *Engine) RuleSet() *RuleSet {
	return e.set
}

func (e *Engine) normalizeAll(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if n := e.normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Evaluate runs the category phase (first match wins) and then the label phase
// (every rule, union of labels). The result depends only on the transaction and
// the rule set.
func (e *Engine) Evaluate(txn model.Transaction) Match {
	payee := e.normalize(txn.Payee)

	var m Match
	if rule, ok := e.firstCategoryMatch(txn, payee); ok {
		m.Category = rule.Category
		m.CategoryRule = rule.Name
		m.Confidence = rule.Confidence
		m.MatchedRules = append(m.MatchedRules, rule.Name)
	}

	effective := m.Category
	if effective == "" {
		effective = txn.CategoryTitle()
	}

	labels, names := e.matchLabels(txn, effective)
	m.Labels = labels
	m.MatchedRules = append(m.MatchedRules, names...)

	if m.Any() {
		e.logger.Debug("rules matched",
			"transaction_id", txn.ID,
			"payee", payee,
			"category", m.Category,
			"labels", m.Labels,
			"rules", m.MatchedRules)
	}

	return m
}

// MatchCategory returns the first category rule matching the transaction.
func (e *Engine) MatchCategory(txn model.Transaction) (CategoryRule, bool) {
	return e.firstCategoryMatch(txn, e.normalize(txn.Payee))
}

// Matches reports whether a single category rule matches the transaction.
func (e *Engine) Matches(rule CategoryRule, txn model.Transaction) bool {
	c := compiledCategoryRule{
		rule:       rule,
		patterns:   e.normalizeAll(rule.Patterns),
		exclusions: e.normalizeAll(rule.Exclusions),
	}
	ok, _ := c.matches(txn, e.normalize(txn.Payee))
	return ok
}

// MatchesLabel reports whether a label rule applies given the effective category.
func (e *Engine) MatchesLabel(rule LabelRule, txn model.Transaction, effectiveCategory string) bool {
	ok, _ := labelMatches(rule, txn, effectiveCategory)
	return ok
}

func (e *Engine) firstCategoryMatch(txn model.Transaction, payee string) (CategoryRule, bool) {
	for _, c := range e.categoryRules {
		if ok, _ := c.matches(txn, payee); ok {
			return c.rule, true
		}
	}
	return CategoryRule{}, false
}

func (e *Engine) matchLabels(txn model.Transaction, effectiveCategory string) ([]string, []string) {
	set := make(map[string]struct{})
	var names []string

	for _, r := range e.set.LabelRules {
		if ok, _ := labelMatches(r, txn, effectiveCategory); !ok {
			continue
		}
		names = append(names, r.Name)
		for _, l := range r.Labels {
			set[l] = struct{}{}
		}
	}

	if len(set) == 0 {
		return nil, names
	}

	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	return labels, names
}

// matches evaluates the rule against an already-normalized payee and returns a
// reason when it does not match.
func (c compiledCategoryRule) matches(txn model.Transaction, payee string) (bool, string) {
	matched := false
	for _, p := range c.patterns {
		if strings.Contains(payee, p) {
			matched = true
			break
		}
	}
	if !matched {
		return false, "no pattern matched"
	}

	for _, x := range c.exclusions {
		if strings.Contains(payee, x) {
			return false, fmt.Sprintf("excluded by %q", x)
		}
	}

	if !c.rule.Amount.Matches(txn.Amount) {
		return false, fmt.Sprintf("amount %s fails %s", txn.Amount.String(), c.rule.Amount)
	}

	if len(c.rule.Accounts) > 0 && !containsFold(c.rule.Accounts, txn.Account) {
		return false, fmt.Sprintf("account %q not allowed", txn.Account)
	}

	return true, ""
}

func labelMatches(r LabelRule, txn model.Transaction, effectiveCategory string) (bool, string) {
	cond := r.Conditions

	if cond.OnlyUncategorized {
		if txn.HasCategory() {
			return false, "transaction already categorized"
		}
		return true, ""
	}

	if len(cond.Categories) > 0 && !containsFold(cond.Categories, effectiveCategory) {
		return false, fmt.Sprintf("category %q not in %v", effectiveCategory, cond.Categories)
	}
	if len(cond.Accounts) > 0 && !containsFold(cond.Accounts, txn.Account) {
		return false, fmt.Sprintf("account %q not allowed", txn.Account)
	}
	if !cond.Amount.Matches(txn.Amount) {
		return false, fmt.Sprintf("amount %s fails %s", txn.Amount.String(), cond.Amount)
	}

	return true, ""
}
