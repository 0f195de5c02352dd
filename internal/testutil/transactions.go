// Package testutil provides builders and fixtures shared by package tests.
package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/shopspring/decimal"
)

// CategoryName is a category title used across tests.
type CategoryName string

// Common category names used across tests.
const (
	CategoryGroceries     CategoryName = "Groceries"
	CategoryDiningOut     CategoryName = "Dining Out"
	CategoryShopping      CategoryName = "Shopping"
	CategoryTransport     CategoryName = "Transport"
	CategoryEntertainment CategoryName = "Entertainment"
	CategoryUtilities     CategoryName = "Utilities"
	CategoryIncome        CategoryName = "Salary"
)

// BasicCategories returns the category list most tests categorize against.
func BasicCategories() []model.Category {
	names := []CategoryName{
		CategoryGroceries,
		CategoryDiningOut,
		CategoryShopping,
		CategoryTransport,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryIncome,
	}
	cats := make([]model.Category, 0, len(names))
	for i, n := range names {
		cats = append(cats, model.Category{ID: fmt.Sprintf("%d", i+1), Title: string(n)})
	}
	return cats
}

// TxnBuilder builds transactions fluently.
type TxnBuilder struct {
	txn model.Transaction
}

// NewTxn starts a transaction with an id, payee and decimal amount string.
func NewTxn(id, payee, amount string) *TxnBuilder {
	return &TxnBuilder{txn: model.Transaction{
		ID:     id,
		Payee:  payee,
		Amount: decimal.RequireFromString(amount),
		Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}}
}

// WithCategory sets the existing category.
func (b *TxnBuilder) WithCategory(title string) *TxnBuilder {
	b.txn.Category = &model.Category{ID: "cat-" + title, Title: title}
	return b
}

// WithAccount sets the account name.
func (b *TxnBuilder) WithAccount(account string) *TxnBuilder {
	b.txn.Account = account
	return b
}

// WithDate sets the transaction date from YYYY-MM-DD.
func (b *TxnBuilder) WithDate(date string) *TxnBuilder {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(fmt.Sprintf("testutil: bad date %q: %v", date, err))
	}
	b.txn.Date = d
	return b
}

// WithConfidence records a prior categorization confidence.
func (b *TxnBuilder) WithConfidence(c int) *TxnBuilder {
	b.txn.Confidence = &c
	return b
}

// WithLabels sets existing labels.
func (b *TxnBuilder) WithLabels(labels ...string) *TxnBuilder {
	b.txn.Labels = labels
	return b
}

// Build returns the transaction with its hash populated.
func (b *TxnBuilder) Build() model.Transaction {
	txn := b.txn
	txn.Hash = txn.GenerateHash()
	return txn
}

// SampleRulesYAML is a small but complete rule file used by several packages.
const SampleRulesYAML = `
rules:
  - type: category
    name: woolworths-groceries
    patterns: ["woolworths", "coles"]
    exclusions: ["woolworths petrol"]
    category: Groceries
    confidence: 95
  - type: category
    name: woolworths-shopping
    patterns: ["woolworths"]
    category: Shopping
    confidence: 80
  - type: category
    name: cafe
    patterns: ["cafe", "coffee"]
    category: Dining Out
    confidence: 75
  - type: category
    name: uber
    patterns: ["uber"]
    exclusions: ["uber eats"]
    category: Transport
    confidence: 60
  - type: label
    name: food
    labels: ["Food"]
    conditions:
      categories: ["Groceries", "Dining Out"]
  - type: label
    name: large-purchase
    labels: ["Large Purchase", "Review"]
    conditions:
      amount: "> 100"
  - type: label
    name: needs-category
    labels: ["Uncategorised"]
    conditions:
      only_uncategorized: true
`
