// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single financial transaction from any source.
// Amount is signed: negative values are expenses, positive values are income.
type Transaction struct {
	Date       time.Time       `json:"date"`
	Category   *Category       `json:"category,omitempty"`
	Confidence *int            `json:"confidence,omitempty"` // Recorded by a prior categorization pass
	Amount     decimal.Decimal `json:"amount"`
	ID         string          `json:"id"`
	Payee      string          `json:"payee"`
	Account    string          `json:"account,omitempty"`
	Hash       string          `json:"-"`
	Labels     []string        `json:"labels,omitempty"`
}

// IsExpense reports whether money left the account.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether money entered the account.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// AbsAmount returns the unsigned transaction amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// HasCategory reports whether the transaction already carries a category.
func (t Transaction) HasCategory() bool {
	return t.Category != nil && strings.TrimSpace(t.Category.Title) != ""
}

// CategoryTitle returns the existing category title or an empty string.
func (t Transaction) CategoryTitle() string {
	if !t.HasCategory() {
		return ""
	}
	return t.Category.Title
}

// RecordedConfidence returns the prior confidence, if one was recorded.
func (t Transaction) RecordedConfidence() (int, bool) {
	if t.Confidence == nil {
		return 0, false
	}
	return *t.Confidence, true
}

// GenerateHash creates a stable fingerprint used for caching and deduplication.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		strings.ToLower(strings.TrimSpace(t.Payee)),
		t.Account)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
