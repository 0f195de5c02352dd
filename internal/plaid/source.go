package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
)

// DefaultLookback is the fetch window used when the filter has no start date.
const DefaultLookback = 90 * 24 * time.Hour

// Source adapts a TransactionFetcher to service.TransactionSource. The
// filter's date range bounds the API request.
type Source struct {
	fetcher  TransactionFetcher
	now      func() time.Time
	lookback time.Duration
}

var _ service.TransactionSource = (*Source)(nil)

// NewSource creates a source over the fetcher.
func NewSource(fetcher TransactionFetcher) *Source {
	return &Source{fetcher: fetcher, now: time.Now, lookback: DefaultLookback}
}

// Name identifies the source in run history.
func (s *Source) Name() string {
	return "plaid"
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

	return s.fetcher.GetTransactions(ctx, start, end)
}
