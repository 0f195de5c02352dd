package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/storage"
)

// TestDB is a migrated in-memory ledger seeded with categories.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	Categories []model.Category
}

// SetupTestDB creates an in-memory ledger, runs migrations and seeds the given
// category titles. The database is closed when the test ends.
func SetupTestDB(t *testing.T, titles ...CategoryName) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	names := make([]string, len(titles))
	for i, n := range titles {
		names[i] = string(n)
	}
	cats, err := store.EnsureCategories(ctx, names)
	if err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	return &TestDB{Storage: store, Categories: cats}
}
