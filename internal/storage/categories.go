package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// GetCategories returns all known categories ordered by title.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM categories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var (
			id  int64
			cat model.Category
		)
		if err := rows.Scan(&id, &cat.Title); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.ID = strconv.FormatInt(id, 10)
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// CreateCategory adds a category, returning the existing one when the title is
// already known (case-insensitive).
func (s *SQLiteStorage) CreateCategory(ctx context.Context, title string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if err := validateString(title, "title"); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (title, created_at) VALUES (?, ?)`,
		title, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	var (
		id  int64
		cat model.Category
	)
	err = s.db.QueryRowContext(ctx, `SELECT id, title FROM categories WHERE title = ?`, title).Scan(&id, &cat.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", title, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	cat.ID = strconv.FormatInt(id, 10)

	return &cat, nil
}

// EnsureCategories creates every missing title and returns the full list.
func (s *SQLiteStorage) EnsureCategories(ctx context.Context, titles []string) ([]model.Category, error) {
	for _, title := range titles {
		if strings.TrimSpace(title) == "" {
			continue
		}
		if _, err := s.CreateCategory(ctx, title); err != nil {
			return nil, err
		}
	}
	return s.GetCategories(ctx)
}
