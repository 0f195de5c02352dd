package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/engine"
)

const systemPrompt = `You are a personal finance assistant that categorizes bank transactions.
Answer only with JSON of the form {"results":[{"id":"...","category":"...","confidence":0-100}]}.
Return exactly one result per transaction id you were given.
When a transaction includes "proposed", decide whether that category is correct and answer with the category you believe is right.
Use an empty category when you cannot decide.`

// promptItem is the wire form of one request inside the prompt.
type promptItem struct {
	ID       string `json:"id"`
	Payee    string `json:"payee"`
	Merchant string `json:"merchant"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
	Account  string `json:"account,omitempty"`
	Proposed string `json:"proposed,omitempty"`
}

// buildPrompt renders the user prompt for a batch of requests.
func buildPrompt(requests []engine.ClassificationRequest, categories []string) (string, error) {
	items := make([]promptItem, len(requests))
	for i, req := range requests {
		txn := req.Transaction
		items[i] = promptItem{
			ID:       txn.ID,
			Payee:    txn.Payee,
			Merchant: req.Merchant,
			Amount:   txn.Amount.StringFixed(2),
			Date:     txn.Date.Format("2006-01-02"),
			Account:  txn.Account,
			Proposed: req.Candidate,
		}
	}

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt: %w", err)
	}

	var sb strings.Builder
	if len(categories) > 0 {
		sb.WriteString("Choose categories from this list only:\n")
		for _, c := range categories {
			sb.WriteString("- ")
			sb.WriteString(c)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("Suggest a short, general category name for each transaction.\n\n")
	}
	sb.WriteString("Negative amounts are expenses, positive amounts are income.\n\n")
	sb.WriteString("Transactions:\n")
	sb.Write(payload)
	sb.WriteString("\n")

	return sb.String(), nil
}
