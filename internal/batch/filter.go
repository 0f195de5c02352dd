package batch

import (
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
)

// ApplyFilter narrows transactions by date range, then account, then limit.
// Both ends of the date range are inclusive.
func ApplyFilter(txns []model.Transaction, filter service.TransactionFilter) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))

	for _, t := range txns {
		if filter.StartDate != nil && t.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && t.Date.After(*filter.EndDate) {
			continue
		}
		out = append(out, t)
	}

	if len(filter.Accounts) > 0 {
		kept := out[:0]
		for _, t := range out {
			if accountAllowed(filter.Accounts, t.Account) {
				kept = append(kept, t)
			}
		}
		out = kept
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out
}

func accountAllowed(accounts []string, account string) bool {
	for _, a := range accounts {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(account)) {
			return true
		}
	}
	return false
}
