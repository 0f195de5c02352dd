package model

// Source indicates how a categorization decision was reached.
type Source string

// Categorization source constants.
const (
	SourceRule     Source = "rule"
	SourceLLM      Source = "llm"
	SourceConflict Source = "conflict"
	SourceExisting Source = "existing" // Existing category kept, nothing new suggested
	SourceNone     Source = "none"     // Uncategorized and nobody could suggest a category
	SourceFailed   Source = "failed"   // Classifier escalation failed
)

// CategorizationResult is the decision produced for one transaction.
// An empty Category means no category is assigned.
type CategorizationResult struct {
	TransactionID     string   `json:"transaction_id"`
	Category          string   `json:"category,omitempty"`
	SuggestedCategory string   `json:"suggested_category,omitempty"`
	Source            Source   `json:"source"`
	Error             string   `json:"error,omitempty"`
	Labels            []string `json:"labels,omitempty"`
	MatchedRules      []string `json:"matched_rules,omitempty"`
	Confidence        int      `json:"confidence"`
	NeedsReview       bool     `json:"needs_review,omitempty"`
	LLMUsed           bool     `json:"llm_used,omitempty"`
	Validated         bool     `json:"validated,omitempty"`
}

// HasCategory reports whether the result assigns a category.
func (r *CategorizationResult) HasCategory() bool {
	return r != nil && r.Category != ""
}

// IsConflict reports whether the result disagrees with an existing category.
func (r *CategorizationResult) IsConflict() bool {
	return r != nil && r.Source == SourceConflict
}

// BatchResult aggregates the outcome of categorizing many transactions.
type BatchResult struct {
	Details         map[string]*CategorizationResult `json:"details"`
	SkipReasons     map[string]int                   `json:"skip_reasons,omitempty"`
	Total           int                              `json:"total"`
	RuleMatches     int                              `json:"rule_matches"`
	LLMCategorized  int                              `json:"llm_categorized"`
	LLMValidated    int                              `json:"llm_validated"`
	Conflicts       int                              `json:"conflicts"`
	Skipped         int                              `json:"skipped"`
	Processed       int                              `json:"processed"`
	Applied         int                              `json:"applied"`
	Upgraded        int                              `json:"upgraded"`
	Unchanged       int                              `json:"unchanged"`
	WouldChange     int                              `json:"would_change"`
	WouldCategorize int                              `json:"would_categorize"`
	Failed          int                              `json:"failed"`
	Partial         bool                             `json:"partial,omitempty"`
}

// NewBatchResult returns an empty batch result with initialized maps.
func NewBatchResult() *BatchResult {
	return &BatchResult{
		Details:     make(map[string]*CategorizationResult),
		SkipReasons: make(map[string]int),
	}
}

// Skip records a skipped transaction with its reason.
func (b *BatchResult) Skip(reason string) {
	b.Skipped++
	if b.SkipReasons == nil {
		b.SkipReasons = make(map[string]int)
	}
	b.SkipReasons[reason]++
}
