package model

import "time"

// Run describes one categorize invocation.
type Run struct {
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	ID           string           `json:"id"`
	Source       string           `json:"source"`
	Mode         ProcessingMode   `json:"mode"`
	Strategy     UpdateStrategy   `json:"strategy"`
	Intelligence IntelligenceMode `json:"intelligence"`
	Error        string           `json:"error,omitempty"`
	Total        int              `json:"total"`
	RuleMatches  int              `json:"rule_matches"`
	LLMUsed      int              `json:"llm_used"`
	Conflicts    int              `json:"conflicts"`
	Applied      int              `json:"applied"`
	Skipped      int              `json:"skipped"`
}

// Decision is a persisted per-transaction result of a run.
type Decision struct {
	CategorizationResult
	RunID string `json:"run_id"`
}

// Categorization is the category currently recorded for a transaction.
type Categorization struct {
	UpdatedAt     time.Time `json:"updated_at"`
	TransactionID string    `json:"transaction_id"`
	Category      string    `json:"category"`
	Source        Source    `json:"source"`
	Labels        []string  `json:"labels,omitempty"`
	Confidence    int       `json:"confidence"`
}

// RuleStat counts how often a rule contributed to an applied categorization.
type RuleStat struct {
	LastUsed *time.Time `json:"last_used,omitempty"`
	Rule     string     `json:"rule"`
	Hits     int        `json:"hits"`
}
