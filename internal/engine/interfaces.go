package engine

import (
	"context"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// ClassificationRequest asks the external classifier about one transaction.
// Candidate is empty for escalations and holds the rule's category when the
// classifier is asked to validate a medium-confidence match.
type ClassificationRequest struct {
	Transaction model.Transaction
	Merchant    string
	Candidate   string
}

// IsValidation reports whether the request validates an existing rule match.
func (r ClassificationRequest) IsValidation() bool {
	return r.Candidate != ""
}

// Suggestion is the classifier's answer for one request, keyed by the request's
// transaction id. An empty Category means the classifier had no answer.
type Suggestion struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	Confidence    int    `json:"confidence"`
}

// Classifier defines the contract for the external categorization collaborator.
type Classifier interface {
	ClassifyBatch(ctx context.Context, requests []ClassificationRequest, categories []string) ([]Suggestion, error)
}
