// Package service defines the interfaces between the categorization core and
// its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// TransactionFilter narrows a transaction list. Filters apply in field order:
// date range, then accounts, then limit.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Accounts  []string
	Limit     int
}

// TransactionSource loads transactions from somewhere.
type TransactionSource interface {
	Name() string
	Transactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
}

// Update is one categorization to write back.
type Update struct {
	TransactionID    string
	Hash             string
	Category         string
	PreviousCategory string
	Source           model.Source
	Labels           []string
	MatchedRules     []string
	Confidence       int
}

// CategorySink receives categorizations in APPLY mode.
type CategorySink interface {
	ApplyCategorization(ctx context.Context, update Update) error
}

// Storage defines the contract for the categorization ledger.
type Storage interface {
	CategorySink

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, title string) (*model.Category, error)

	// Recorded categorizations
	GetCategorization(ctx context.Context, transactionID string) (*model.Categorization, error)
	AnnotateConfidence(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error)

	// Run history
	StartRun(ctx context.Context, run *model.Run) error
	FinishRun(ctx context.Context, run *model.Run, result *model.BatchResult) error
	GetRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetRun(ctx context.Context, id string) (*model.Run, error)
	GetDecisions(ctx context.Context, runID string) ([]model.Decision, error)
	GetRuleStats(ctx context.Context) ([]model.RuleStat, error)

	Migrate(ctx context.Context) error
	Close() error
}
