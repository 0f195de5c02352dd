package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionDirection(t *testing.T) {
	expense := Transaction{Amount: decimal.RequireFromString("-42.10")}
	income := Transaction{Amount: decimal.RequireFromString("1500")}
	zero := Transaction{}

	assert.True(t, expense.IsExpense())
	assert.False(t, expense.IsIncome())
	assert.True(t, expense.AbsAmount().Equal(decimal.RequireFromString("42.10")))

	assert.True(t, income.IsIncome())
	assert.False(t, income.IsExpense())

	assert.False(t, zero.IsIncome())
	assert.False(t, zero.IsExpense())
}

func TestTransactionCategory(t *testing.T) {
	txn := Transaction{}
	assert.False(t, txn.HasCategory())
	assert.Empty(t, txn.CategoryTitle())

	txn.Category = &Category{ID: "7", Title: "  "}
	assert.False(t, txn.HasCategory())

	txn.Category = &Category{ID: "7", Title: "Groceries"}
	assert.True(t, txn.HasCategory())
	assert.Equal(t, "Groceries", txn.CategoryTitle())
}

func TestTransactionRecordedConfidence(t *testing.T) {
	txn := Transaction{}
	_, ok := txn.RecordedConfidence()
	assert.False(t, ok)

	c := 85
	txn.Confidence = &c
	got, ok := txn.RecordedConfidence()
	assert.True(t, ok)
	assert.Equal(t, 85, got)
}

func TestGenerateHash(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	a := Transaction{Date: date, Amount: decimal.RequireFromString("-10.5"), Payee: "Woolworths", Account: "Everyday"}
	b := Transaction{Date: date, Amount: decimal.RequireFromString("-10.50"), Payee: " WOOLWORTHS ", Account: "Everyday"}
	c := Transaction{Date: date, Amount: decimal.RequireFromString("-10.50"), Payee: "Coles", Account: "Everyday"}

	assert.Equal(t, a.GenerateHash(), b.GenerateHash())
	assert.NotEqual(t, a.GenerateHash(), c.GenerateHash())
	assert.Len(t, a.GenerateHash(), 64)
}

func TestSameCategory(t *testing.T) {
	assert.True(t, SameCategory("Dining Out", "dining out "))
	assert.False(t, SameCategory("Dining Out", "Groceries"))

	cats := []Category{{ID: "1", Title: "Groceries"}, {ID: "2", Title: "Transport"}}
	found, ok := FindCategory(cats, "transport")
	assert.True(t, ok)
	assert.Equal(t, "2", found.ID)
	assert.Equal(t, []string{"Groceries", "Transport"}, CategoryTitles(cats))
}
