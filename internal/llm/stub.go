package llm

import (
	"context"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/engine"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// stubKeywords maps merchant keywords to categories, checked in order.
var stubKeywords = []struct {
	keyword  string
	category string
}{
	{"grocery", "Groceries"},
	{"market", "Groceries"},
	{"supermarket", "Groceries"},
	{"coffee", "Dining Out"},
	{"cafe", "Dining Out"},
	{"restaurant", "Dining Out"},
	{"pizza", "Dining Out"},
	{"netflix", "Entertainment"},
	{"spotify", "Entertainment"},
	{"cinema", "Entertainment"},
	{"shell", "Transport"},
	{"fuel", "Transport"},
	{"petrol", "Transport"},
	{"transit", "Transport"},
	{"electric", "Utilities"},
	{"energy", "Utilities"},
	{"water", "Utilities"},
	{"internet", "Utilities"},
	{"payroll", "Salary"},
	{"salary", "Salary"},
	{"amazon", "Shopping"},
}

// StubClassifier is a deterministic offline classifier. It answers from a
// fixed keyword table and confirms validations it has no opinion on.
type StubClassifier struct{}

var _ engine.Classifier = StubClassifier{}

// NewStubClassifier creates an offline classifier.
func NewStubClassifier() StubClassifier {
	return StubClassifier{}
}

// ClassifyBatch answers each request locally. Answers outside a non-empty
// category list are dropped.
func (StubClassifier) ClassifyBatch(ctx context.Context, requests []engine.ClassificationRequest, categories []string) ([]engine.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]engine.Suggestion, 0, len(requests))
	for _, req := range requests {
		category, ok := stubLookup(req.Merchant, req.Transaction.Payee)
		switch {
		case ok && allowed(categories, category):
			out = append(out, engine.Suggestion{
				TransactionID: req.Transaction.ID,
				Category:      category,
				Confidence:    80,
			})
		case req.IsValidation():
			out = append(out, engine.Suggestion{
				TransactionID: req.Transaction.ID,
				Category:      req.Candidate,
				Confidence:    engine.ConfirmedConfidence,
			})
		}
	}

	return out, nil
}

func stubLookup(values ...string) (string, bool) {
	for _, v := range values {
		v = strings.ToLower(v)
		for _, k := range stubKeywords {
			if strings.Contains(v, k.keyword) {
				return k.category, true
			}
		}
	}
	return "", false
}

func allowed(categories []string, category string) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if model.SameCategory(c, category) {
			return true
		}
	}
	return false
}
