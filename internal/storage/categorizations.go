package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
)

// ApplyCategorization records an applied categorization and counts a hit for
// every rule that contributed to it.
func (s *SQLiteStorage) ApplyCategorization(ctx context.Context, update service.Update) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUpdate(update); err != nil {
		return err
	}

	labels, err := encodeList(update.Labels)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categorizations (
				transaction_id, hash, category, previous_category, source, labels, confidence, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(transaction_id) DO UPDATE SET
				hash = excluded.hash,
				category = excluded.category,
				previous_category = excluded.previous_category,
				source = excluded.source,
				labels = excluded.labels,
				confidence = excluded.confidence,
				updated_at = excluded.updated_at`,
			update.TransactionID, update.Hash, update.Category, update.PreviousCategory,
			string(update.Source), labels, update.Confidence, now)
		if err != nil {
			return fmt.Errorf("failed to save categorization: %w", err)
		}

		for _, rule := range update.MatchedRules {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO rule_stats (rule, hits, last_used) VALUES (?, 1, ?)
				ON CONFLICT(rule) DO UPDATE SET
					hits = hits + 1,
					last_used = excluded.last_used`,
				rule, now)
			if err != nil {
				return fmt.Errorf("failed to update rule stats: %w", err)
			}
		}

		return nil
	})
}

// GetCategorization returns the recorded categorization for a transaction.
func (s *SQLiteStorage) GetCategorization(ctx context.Context, transactionID string) (*model.Categorization, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	var (
		c      model.Categorization
		source string
		labels string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT transaction_id, category, source, labels, confidence, updated_at
		FROM categorizations
		WHERE transaction_id = ?`, transactionID).
		Scan(&c.TransactionID, &c.Category, &source, &labels, &c.Confidence, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("categorization %q: %w", transactionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query categorization: %w", err)
	}

	c.Source = model.Source(source)
	if c.Labels, err = decodeList(labels); err != nil {
		return nil, err
	}

	return &c, nil
}

// AnnotateConfidence fills in the recorded confidence of transactions that do
// not already carry one. Transactions are matched by id, then by hash.
func (s *SQLiteStorage) AnnotateConfidence(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT transaction_id, COALESCE(hash, ''), confidence FROM categorizations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categorizations: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]int)
	byHash := make(map[string]int)
	for rows.Next() {
		var (
			id, hash   string
			confidence int
		)
		if err := rows.Scan(&id, &hash, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan categorization: %w", err)
		}
		byID[id] = confidence
		if hash != "" {
			byHash[hash] = confidence
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categorizations: %w", err)
	}

	out := make([]model.Transaction, len(txns))
	copy(out, txns)
	for i := range out {
		if out[i].Confidence != nil {
			continue
		}
		if c, ok := byID[out[i].ID]; ok {
			out[i].Confidence = &c
		} else if c, ok := byHash[out[i].Hash]; ok && out[i].Hash != "" {
			out[i].Confidence = &c
		}
	}

	return out, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}
