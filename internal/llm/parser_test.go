package llm

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-sort/internal/engine"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain json", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{name: "surrounding space", input: "  {\"a\":1}\n", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestParseSuggestions(t *testing.T) {
	content := "```json\n" + `{"results":[
		{"id":"t1","category":" Groceries ","confidence":0.93},
		{"id":"t2","category":"Transport","confidence":88},
		{"id":"t3","category":"","confidence":0},
		{"id":"","category":"Ignored","confidence":50},
		{"id":"t4","category":"Salary","confidence":140}
	]}` + "\n```"

	got, err := parseSuggestions(content)
	require.NoError(t, err)
	assert.Equal(t, []engine.Suggestion{
		{TransactionID: "t1", Category: "Groceries", Confidence: 93},
		{TransactionID: "t2", Category: "Transport", Confidence: 88},
		{TransactionID: "t3", Category: "", Confidence: 0},
		{TransactionID: "t4", Category: "Salary", Confidence: 100},
	}, got)
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{in: 0, want: 0},
		{in: 0.5, want: 50},
		{in: 0.999, want: 100},
		{in: 1, want: 1},
		{in: 1.5, want: 2},
		{in: 75, want: 75},
		{in: 140, want: 100},
		{in: -3, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeConfidence(tt.in), "confidence %v", tt.in)
	}
}

func TestParseSuggestionsInvalid(t *testing.T) {
	_, err := parseSuggestions("CATEGORY: Groceries")
	require.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	txn := model.Transaction{
		ID:      "t1",
		Payee:   "WOOLWORTHS 1234 SYDNEY",
		Amount:  decimal.RequireFromString("-42.5"),
		Date:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Account: "Everyday",
	}

	prompt, err := buildPrompt([]engine.ClassificationRequest{
		{Transaction: txn, Merchant: "woolworths", Candidate: "Groceries"},
	}, []string{"Groceries", "Dining Out"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Groceries\n- Dining Out\n")
	assert.Contains(t, prompt, `"id": "t1"`)
	assert.Contains(t, prompt, `"merchant": "woolworths"`)
	assert.Contains(t, prompt, `"amount": "-42.50"`)
	assert.Contains(t, prompt, `"date": "2024-03-15"`)
	assert.Contains(t, prompt, `"proposed": "Groceries"`)

	open, err := buildPrompt([]engine.ClassificationRequest{{Transaction: txn, Merchant: "woolworths"}}, nil)
	require.NoError(t, err)
	assert.Contains(t, open, "Suggest a short, general category name")
	assert.NotContains(t, open, "proposed")
}
