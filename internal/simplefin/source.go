package simplefin

import (
	"context"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
)

// DefaultLookback is the fetch window used when the filter has no start date.
const DefaultLookback = 90 * 24 * time.Hour

// Source adapts a Client to service.TransactionSource.
type Source struct {
	client   *Client
	now      func() time.Time
	lookback time.Duration
}

var _ service.TransactionSource = (*Source)(nil)

// NewSource creates a source over the client.
func NewSource(client *Client) *Source {
	return &Source{client: client, now: time.Now, lookback: DefaultLookback}
}

// Name identifies the source in run history.
func (s *Source) Name() string {
	return "simplefin"
}

// Transactions fetches the filter's date range, defaulting to the last 90 days.
func (s *Source) Transactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	end := s.now()
	if filter.EndDate != nil {
		end = *filter.EndDate
	}
	start := end.Add(-s.lookback)
	if filter.StartDate != nil {
		start = *filter.StartDate
	}

	return s.client.GetTransactions(ctx, start, end)
}
