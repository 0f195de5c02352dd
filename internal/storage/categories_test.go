package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	groceries, err := store.CreateCategory(ctx, "Groceries")
	require.NoError(t, err)
	assert.NotEmpty(t, groceries.ID)
	assert.Equal(t, "Groceries", groceries.Title)

	// Titles are unique regardless of case.
	again, err := store.CreateCategory(ctx, " groceries ")
	require.NoError(t, err)
	assert.Equal(t, groceries.ID, again.ID)
	assert.Equal(t, "Groceries", again.Title)

	_, err = store.CreateCategory(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)

	all, err := store.EnsureCategories(ctx, []string{"Transport", "Dining Out", "", "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dining Out", "Groceries", "Transport"}, model.CategoryTitles(all))
}
