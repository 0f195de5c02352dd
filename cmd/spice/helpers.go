package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/feed"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/ofx"
	"github.com/Veraticus/the-spice-must-sort/internal/rules"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
	"github.com/Veraticus/the-spice-must-sort/internal/storage"
)

// initStorage opens the ledger and brings its schema up to date.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadRules reads the rule file and builds an engine over it.
func loadRules(path string) (*rules.RuleSet, *rules.Engine, error) {
	set, err := rules.LoadFile(path)
	if err != nil {
		var verr *rules.ValidationError
		if errors.As(err, &verr) {
			return nil, nil, common.NewUserError(formatProblems(verr), err)
		}
		return nil, nil, err
	}
	return set, rules.NewEngine(set), nil
}

func formatProblems(verr *rules.ValidationError) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s has %d problem(s):", verr.Source, len(verr.Problems))
	for _, p := range verr.Problems {
		sb.WriteString("\n  - ")
		sb.WriteString(p)
	}
	return sb.String()
}

// fileSource picks a reader by file extension.
func fileSource(path string) service.TransactionSource {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return ofx.NewFileSource(path)
	default:
		return feed.NewFileSource(path)
	}
}

// parseDay parses YYYY-MM-DD. With endOfDay the last instant of the day is
// returned so the range stays inclusive.
func parseDay(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", common.ErrInvalidConfig, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// loadTransactions reads every transaction from a file source.
func loadTransactions(ctx context.Context, path string) ([]model.Transaction, error) {
	return fileSource(path).Transactions(ctx, service.TransactionFilter{})
}
