package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// StartRun records the beginning of a categorize invocation.
func (s *SQLiteStorage) StartRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, source, mode, strategy, intelligence)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.Source, string(run.Mode), string(run.Strategy), string(run.Intelligence))
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun stores the run counters and every per-transaction decision.
// A nil result records the run as finished with no decisions.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *model.Run, result *model.BatchResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	finished := time.Now().UTC()
	if result != nil {
		run.Total = result.Total
		run.RuleMatches = result.RuleMatches
		run.LLMUsed = result.LLMCategorized + result.LLMValidated
		run.Conflicts = result.Conflicts
		run.Applied = result.Applied
		run.Skipped = result.Skipped
	}
	run.FinishedAt = &finished

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE runs SET
				finished_at = ?, error = ?, total = ?, rule_matches = ?,
				llm_used = ?, conflicts = ?, applied = ?, skipped = ?
			WHERE id = ?`,
			finished, run.Error, run.Total, run.RuleMatches,
			run.LLMUsed, run.Conflicts, run.Applied, run.Skipped, run.ID)
		if err != nil {
			return fmt.Errorf("failed to finish run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %q: %w", run.ID, ErrNotFound)
		}

		if result == nil {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO decisions (
				run_id, transaction_id, category, suggested_category, source, error,
				labels, matched_rules, confidence, needs_review, llm_used, validated
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare decision insert: %w", err)
		}
		defer stmt.Close()

		for _, d := range result.Details {
			labels, err := encodeList(d.Labels)
			if err != nil {
				return err
			}
			rules, err := encodeList(d.MatchedRules)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				run.ID, d.TransactionID, d.Category, d.SuggestedCategory, string(d.Source), d.Error,
				labels, rules, d.Confidence, d.NeedsReview, d.LLMUsed, d.Validated); err != nil {
				return fmt.Errorf("failed to save decision for %s: %w", d.TransactionID, err)
			}
		}

		return nil
	})
}

const runColumns = `id, started_at, finished_at, source, mode, strategy, intelligence, error,
	total, rule_matches, llm_used, conflicts, applied, skipped`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.Run, error) {
	var (
		run                          model.Run
		finished                     sql.NullTime
		mode, strategy, intelligence string
	)
	err := row.Scan(&run.ID, &run.StartedAt, &finished, &run.Source, &mode, &strategy, &intelligence,
		&run.Error, &run.Total, &run.RuleMatches, &run.LLMUsed, &run.Conflicts, &run.Applied, &run.Skipped)
	if err != nil {
		return model.Run{}, err
	}

	run.Mode = model.ProcessingMode(mode)
	run.Strategy = model.UpdateStrategy(strategy)
	run.Intelligence = model.IntelligenceMode(intelligence)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

// GetRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *SQLiteStorage) GetRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRun returns a single run.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return &run, nil
}

// GetDecisions returns a run's decisions ordered by transaction id.
func (s *SQLiteStorage) GetDecisions(ctx context.Context, runID string) ([]model.Decision, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, category, suggested_category, source, error,
			labels, matched_rules, confidence, needs_review, llm_used, validated
		FROM decisions
		WHERE run_id = ?
		ORDER BY transaction_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []model.Decision
	for rows.Next() {
		var (
			d             model.Decision
			source        string
			labels, rules string
		)
		if err := rows.Scan(&d.TransactionID, &d.Category, &d.SuggestedCategory, &source, &d.Error,
			&labels, &rules, &d.Confidence, &d.NeedsReview, &d.LLMUsed, &d.Validated); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.RunID = runID
		d.Source = model.Source(source)
		if d.Labels, err = decodeList(labels); err != nil {
			return nil, err
		}
		if d.MatchedRules, err = decodeList(rules); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return decisions, nil
}

// GetRuleStats returns hit counts, busiest rules first.
func (s *SQLiteStorage) GetRuleStats(ctx context.Context) ([]model.RuleStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT rule, hits, last_used FROM rule_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule stats: %w", err)
	}
	defer rows.Close()

	var stats []model.RuleStat
	for rows.Next() {
		var (
			st       model.RuleStat
			lastUsed sql.NullTime
		)
		if err := rows.Scan(&st.Rule, &st.Hits, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan rule stat: %w", err)
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			st.LastUsed = &t
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule stats: %w", err)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Hits != stats[j].Hits {
			return stats[i].Hits > stats[j].Hits
		}
		return stats[i].Rule < stats[j].Rule
	})

	return stats, nil
}
