package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/the-spice-must-sort/internal/merchant"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/rules"
	"github.com/Veraticus/the-spice-must-sort/internal/settlement"
	"github.com/Veraticus/the-spice-must-sort/internal/testutil"
)

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable([]string{"A", "Long header"}, [][]string{
		{"wide value", "x"},
		{"y"},
	})

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, strings.Index(lines[0], "Long header"), strings.Index(lines[1], "x"))
}

func TestRenderSummaryByMode(t *testing.T) {
	result := model.NewBatchResult()
	result.Total = 6
	result.RuleMatches = 4
	result.Applied = 3
	result.Skip("has_category")
	result.Skip("needs_review")
	result.WouldChange = 2

	apply := RenderSummary(model.ProcessingApply, result)
	assert.Contains(t, apply, "Applied:")
	assert.Contains(t, apply, "has_category: 1")
	assert.NotContains(t, apply, "Would change")

	validate := RenderSummary(model.ProcessingValidate, result)
	assert.Contains(t, validate, "Would change:")
	assert.NotContains(t, validate, "Applied:")

	result.Partial = true
	assert.Contains(t, RenderSummary(model.ProcessingDryRun, result), "results are partial")
}

func TestRenderDecisions(t *testing.T) {
	txns := []model.Transaction{
		testutil.NewTxn("t1", "WOOLWORTHS 1234", "-82.40").Build(),
		testutil.NewTxn("t2", "Cafe Roma", "-4.50").WithCategory("Groceries").Build(),
		testutil.NewTxn("t3", "missing", "-1").Build(),
	}
	result := model.NewBatchResult()
	result.Details["t1"] = &model.CategorizationResult{TransactionID: "t1", Category: "Groceries", Source: model.SourceRule, Confidence: 95, Labels: []string{"Food"}}
	result.Details["t2"] = &model.CategorizationResult{TransactionID: "t2", Category: "Groceries", SuggestedCategory: "Dining Out", Source: model.SourceConflict, Confidence: 75, NeedsReview: true}

	out := RenderDecisions(txns, result)
	assert.Contains(t, out, "WOOLWORTHS 1234")
	assert.Contains(t, out, "-82.40")
	assert.Contains(t, out, "Dining Out")
	assert.Contains(t, out, "review")
	assert.Contains(t, out, "Food")
	assert.NotContains(t, out, "missing")
}

func TestRenderRunsAndStats(t *testing.T) {
	finished := time.Now()
	out := RenderRuns([]model.Run{
		{ID: "run-1", StartedAt: finished, FinishedAt: &finished, Source: "json:tx.json", Mode: model.ProcessingApply, Total: 4, Applied: 2},
		{ID: "run-2", StartedAt: finished, Error: "boom"},
		{ID: "run-3", StartedAt: finished},
	})
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "json:tx.json")
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "running")

	stats := RenderRuleStats([]model.RuleStat{{Rule: "cafe", Hits: 7, LastUsed: &finished}})
	assert.Contains(t, stats, "cafe")
	assert.Contains(t, stats, "7")
}

func TestRenderTraces(t *testing.T) {
	out := RenderTraces([]rules.Trace{
		{Rule: "woolworths-groceries", Kind: rules.KindCategory, Matched: true, Applied: true, Reason: `assigns "Groceries" at 95%`},
		{Rule: "woolworths-shopping", Kind: rules.KindCategory, Matched: true, Reason: "shadowed"},
		{Rule: "uber", Kind: rules.KindCategory, Reason: "no pattern matched"},
	})
	assert.Contains(t, out, SuccessIcon)
	assert.Contains(t, out, "shadowed")
	assert.Contains(t, out, "no pattern matched")
}

func TestRenderGroupsLargestFirst(t *testing.T) {
	out := RenderGroups([]merchant.Group{
		{Key: "uber", Count: 1, Payees: []string{"UBER"}},
		{Key: "woolworths", Count: 3, Payees: []string{"WOOLWORTHS 1", "Woolworths"}, Similar: true},
	})
	assert.Less(t, strings.Index(out, "woolworths"), strings.Index(out, "uber"))
	assert.Contains(t, out, "fuzzy")
}

func TestRenderSettlement(t *testing.T) {
	balances := []settlement.Balance{
		{Member: "Alice", Paid: decimal.NewFromInt(150), Share: decimal.NewFromInt(100), Net: decimal.NewFromInt(50)},
		{Member: "Bob", Paid: decimal.NewFromInt(50), Share: decimal.NewFromInt(100), Net: decimal.NewFromInt(-50)},
	}
	out := RenderSettlement(balances, []settlement.Transfer{{From: "Bob", To: "Alice", Amount: decimal.NewFromInt(50)}})
	assert.Contains(t, out, "Bob pays Alice 50.00")
	assert.Contains(t, out, "-50.00")

	settled := RenderSettlement(nil, nil)
	assert.Contains(t, settled, "settled up")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
