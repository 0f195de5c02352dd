package settlement

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBalancesTwoPeople(t *testing.T) {
	// Alice paid 150, Bob 50, everything split evenly.
	balances, err := Balances(Ledger{
		Members: []string{"Alice", "Bob"},
		Expenses: []Expense{
			{Payer: "Alice", Amount: d("150")},
			{Payer: "bob", Amount: d("50")},
		},
	})
	require.NoError(t, err)
	require.Len(t, balances, 2)

	assert.True(t, d("150").Equal(balances[0].Paid))
	assert.True(t, d("100").Equal(balances[0].Share))
	assert.True(t, d("50").Equal(balances[0].Net))
	assert.True(t, d("-50").Equal(balances[1].Net))

	transfers := Settle(balances)
	require.Len(t, transfers, 1)
	assert.Equal(t, "Bob", transfers[0].From)
	assert.Equal(t, "Alice", transfers[0].To)
	assert.True(t, d("50").Equal(transfers[0].Amount))
}

func TestBalancesUnevenCents(t *testing.T) {
	balances, err := Balances(Ledger{
		Members:  []string{"A", "B", "C"},
		Expenses: []Expense{{Payer: "A", Amount: d("100")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "33.34", balances[0].Share.StringFixed(2))
	assert.Equal(t, "33.33", balances[1].Share.StringFixed(2))
	assert.Equal(t, "33.33", balances[2].Share.StringFixed(2))
	assertNetsToZero(t, balances)
}

func TestBalancesParticipants(t *testing.T) {
	balances, err := Balances(Ledger{
		Members: []string{"Alice", "Bob", "Carol"},
		Expenses: []Expense{
			{Payer: "Carol", Amount: d("60"), Participants: []string{"Alice", "Bob", "alice"}},
		},
	})
	require.NoError(t, err)

	assert.True(t, d("30").Equal(balances[0].Share))
	assert.True(t, d("30").Equal(balances[1].Share))
	assert.True(t, balances[2].Share.IsZero())
	assert.True(t, d("60").Equal(balances[2].Net))
}

func TestBalancesErrors(t *testing.T) {
	tests := []struct {
		name   string
		ledger Ledger
	}{
		{name: "unknown payer", ledger: Ledger{Members: []string{"A"}, Expenses: []Expense{{Payer: "Z", Amount: d("1")}}}},
		{name: "unknown participant", ledger: Ledger{Members: []string{"A"}, Expenses: []Expense{{Payer: "A", Amount: d("1"), Participants: []string{"Z"}}}}},
		{name: "negative amount", ledger: Ledger{Members: []string{"A"}, Expenses: []Expense{{Payer: "A", Amount: d("-1")}}}},
		{name: "duplicate member", ledger: Ledger{Members: []string{"A", "a"}}},
		{name: "empty member", ledger: Ledger{Members: []string{" "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Balances(tt.ledger)
			require.ErrorIs(t, err, ErrInvalidExpense)
		})
	}
}

func TestSettleNetsToZero(t *testing.T) {
	ledger := Ledger{
		Members: []string{"Ann", "Ben", "Cat", "Dan"},
		Expenses: []Expense{
			{Payer: "Ann", Amount: d("120.00"), Description: "groceries"},
			{Payer: "Ben", Amount: d("45.50"), Participants: []string{"Ben", "Cat"}},
			{Payer: "Cat", Amount: d("300"), Description: "rent share"},
			{Payer: "Ann", Amount: d("19.99"), Participants: []string{"Dan"}},
		},
	}

	balances, err := Balances(ledger)
	require.NoError(t, err)
	assertNetsToZero(t, balances)

	transfers := Settle(balances)
	assert.LessOrEqual(t, len(transfers), len(balances)-1)

	after := make(map[string]decimal.Decimal)
	for _, b := range balances {
		after[b.Member] = b.Net
	}
	for _, tr := range transfers {
		assert.True(t, tr.Amount.IsPositive())
		after[tr.From] = after[tr.From].Add(tr.Amount)
		after[tr.To] = after[tr.To].Sub(tr.Amount)
	}
	for member, net := range after {
		assert.True(t, net.IsZero(), "%s still has %s", member, net)
	}
}

func TestSettleBalancedLedger(t *testing.T) {
	assert.Empty(t, Settle([]Balance{{Member: "A", Net: decimal.Zero}, {Member: "B", Net: decimal.Zero}}))
	assert.Empty(t, Settle(nil))
}

func TestDecode(t *testing.T) {
	l, err := Decode(strings.NewReader(`{
		"members": ["Alice", "Bob"],
		"expenses": [{"payer": "Alice", "amount": "42.10", "description": "dinner"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, l.Members)
	require.Len(t, l.Expenses, 1)
	assert.True(t, d("42.10").Equal(l.Expenses[0].Amount))

	_, err = Decode(strings.NewReader(`{"members": [`))
	require.Error(t, err)
}

func assertNetsToZero(t *testing.T, balances []Balance) {
	t.Helper()
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.Net)
	}
	assert.True(t, sum.IsZero(), "nets sum to %s", sum)
}
