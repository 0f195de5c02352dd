package engine

import (
	"context"
	"strings"
	"sync"
)

// KeywordAnswer pairs a merchant keyword with the suggestion returned for it.
type KeywordAnswer struct {
	Keyword    string
	Suggestion Suggestion
}

// MockClassifier is a test implementation of the Classifier interface.
// It answers from a keyword table and records every call.
type MockClassifier struct {
	// Answers are checked in order; the first keyword contained in the
	// request's merchant wins.
	Answers []KeywordAnswer
	// Err, when set, is returned from every call.
	Err   error
	calls [][]ClassificationRequest
	mu    sync.Mutex
}

// NewMockClassifier creates a mock with a few default keyword answers.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		Answers: []KeywordAnswer{
			{Keyword: "coffee", Suggestion: Suggestion{Category: "Dining Out", Confidence: 92}},
			{Keyword: "netflix", Suggestion: Suggestion{Category: "Entertainment", Confidence: 98}},
			{Keyword: "shell", Suggestion: Suggestion{Category: "Transport", Confidence: 90}},
			{Keyword: "grocery", Suggestion: Suggestion{Category: "Groceries", Confidence: 95}},
		},
	}
}

// ClassifyBatch returns a suggestion for every request whose merchant contains
// a known keyword.
func (m *MockClassifier) ClassifyBatch(_ context.Context, requests []ClassificationRequest, _ []string) ([]Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := make([]ClassificationRequest, len(requests))
	copy(batch, requests)
	m.calls = append(m.calls, batch)

	if m.Err != nil {
		return nil, m.Err
	}

	suggestions := make([]Suggestion, 0, len(requests))
	for _, req := range requests {
		for _, a := range m.Answers {
			if strings.Contains(req.Merchant, a.Keyword) {
				answer := a.Suggestion
				answer.TransactionID = req.Transaction.ID
				suggestions = append(suggestions, answer)
				break
			}
		}
	}

	return suggestions, nil
}

// Calls returns every batch of requests received, in order.
func (m *MockClassifier) Calls() [][]ClassificationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([][]ClassificationRequest, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// RequestCount returns the total number of requests received.
func (m *MockClassifier) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		n += len(c)
	}
	return n
}

// Reset clears recorded calls.
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
