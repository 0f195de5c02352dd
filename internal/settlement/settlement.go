// Package settlement splits shared expenses between people and works out who
// pays whom so every balance returns to zero.
package settlement

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidExpense reports an expense that cannot be split.
var ErrInvalidExpense = errors.New("invalid expense")

// Expense is money one member paid on behalf of some or all members.
// An empty Participants list means everyone.
type Expense struct {
	Amount       decimal.Decimal `json:"amount"`
	Payer        string          `json:"payer"`
	Description  string          `json:"description,omitempty"`
	Participants []string        `json:"participants,omitempty"`
}

// Ledger is the input to a settlement.
type Ledger struct {
	Members  []string  `json:"members"`
	Expenses []Expense `json:"expenses"`
}

// Balance is one member's position. Net is positive when the member is owed
// money.
type Balance struct {
	Paid   decimal.Decimal
	Share  decimal.Decimal
	Net    decimal.Decimal
	Member string
}

// Transfer is one payment that moves balances toward zero.
type Transfer struct {
	Amount decimal.Decimal
	From   string
	To     string
}

// Decode reads a ledger from JSON.
func Decode(r io.Reader) (Ledger, error) {
	var l Ledger
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Ledger{}, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return l, nil
}

// Balances computes each member's paid total, share and net position, in
// member order. Shares are split to the cent and leftover cents go to the
// earliest participants, so the nets always sum to zero.
func Balances(l Ledger) ([]Balance, error) {
	index := make(map[string]int, len(l.Members))
	balances := make([]Balance, len(l.Members))
	for i, m := range l.Members {
		key := strings.ToLower(strings.TrimSpace(m))
		if _, dup := index[key]; dup || key == "" {
			return nil, fmt.Errorf("%w: duplicate or empty member %q", ErrInvalidExpense, m)
		}
		index[key] = i
		balances[i] = Balance{Member: m, Paid: decimal.Zero, Share: decimal.Zero}
	}

	lookup := func(name string) (int, bool) {
		i, ok := index[strings.ToLower(strings.TrimSpace(name))]
		return i, ok
	}

	for n, e := range l.Expenses {
		payer, ok := lookup(e.Payer)
		if !ok {
			return nil, fmt.Errorf("%w: expense %d: unknown payer %q", ErrInvalidExpense, n+1, e.Payer)
		}
		if e.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: expense %d: negative amount %s", ErrInvalidExpense, n+1, e.Amount)
		}

		var participants []int
		if len(e.Participants) == 0 {
			for i := range l.Members {
				participants = append(participants, i)
			}
		} else {
			for _, p := range e.Participants {
				i, ok := lookup(p)
				if !ok {
					return nil, fmt.Errorf("%w: expense %d: unknown participant %q", ErrInvalidExpense, n+1, p)
				}
				if !slices.Contains(participants, i) {
					participants = append(participants, i)
				}
			}
		}

		amount := e.Amount.Round(2)
		balances[payer].Paid = balances[payer].Paid.Add(amount)
		for k, share := range split(amount, len(participants)) {
			i := participants[k]
			balances[i].Share = balances[i].Share.Add(share)
		}
	}

	for i := range balances {
		balances[i].Net = balances[i].Paid.Sub(balances[i].Share)
	}

	return balances, nil
}

// split divides amount into n cent-exact parts that sum to amount.
func split(amount decimal.Decimal, n int) []decimal.Decimal {
	cents := amount.Shift(2).IntPart()
	base, extra := cents/int64(n), cents%int64(n)

	parts := make([]decimal.Decimal, n)
	for i := range parts {
		c := base
		if int64(i) < extra {
			c++
		}
		parts[i] = decimal.New(c, -2)
	}
	return parts
}

// Settle pairs the largest debtor with the largest creditor until every
// balance is zero. Ties break by member name so the plan is deterministic.
func Settle(balances []Balance) []Transfer {
	type position struct {
		member string
		amount decimal.Decimal
	}

	var debtors, creditors []position
	for _, b := range balances {
		switch {
		case b.Net.IsNegative():
			debtors = append(debtors, position{member: b.Member, amount: b.Net.Neg()})
		case b.Net.IsPositive():
			creditors = append(creditors, position{member: b.Member, amount: b.Net})
		}
	}

	byAmount := func(a, b position) int {
		if c := b.amount.Cmp(a.amount); c != 0 {
			return c
		}
		return strings.Compare(a.member, b.member)
	}

	var transfers []Transfer
	for len(debtors) > 0 && len(creditors) > 0 {
		slices.SortFunc(debtors, byAmount)
		slices.SortFunc(creditors, byAmount)

		debtor, creditor := &debtors[0], &creditors[0]
		amount := decimal.Min(debtor.amount, creditor.amount)
		transfers = append(transfers, Transfer{From: debtor.member, To: creditor.member, Amount: amount})

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)
		if debtor.amount.IsZero() {
			debtors = debtors[1:]
		}
		if creditor.amount.IsZero() {
			creditors = creditors[1:]
		}
	}

	return transfers
}
