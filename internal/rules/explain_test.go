package rules

import (
	"testing"

	"github.com/Veraticus/the-spice-must-sort/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Explain(t *testing.T) {
	engine := sampleEngine(t)

	traces := engine.Explain(testutil.NewTxn("1", "WOOLWORTHS", "-150").Build())
	require.Len(t, traces, 7)

	byName := make(map[string]Trace, len(traces))
	for _, tr := range traces {
		byName[tr.Rule] = tr
	}

	winner := byName["woolworths-groceries"]
	assert.True(t, winner.Matched)
	assert.True(t, winner.Applied)
	assert.Contains(t, winner.Reason, `"Groceries" at 95%`)

	shadowed := byName["woolworths-shopping"]
	assert.True(t, shadowed.Matched)
	assert.False(t, shadowed.Applied)
	assert.Equal(t, `shadowed by earlier rule "woolworths-groceries"`, shadowed.Reason)

	cafe := byName["cafe"]
	assert.False(t, cafe.Matched)
	assert.Equal(t, "no pattern matched", cafe.Reason)

	assert.True(t, byName["food"].Applied)
	assert.True(t, byName["large-purchase"].Applied)
	assert.True(t, byName["needs-category"].Applied)
	assert.Equal(t, KindLabel, byName["food"].Kind)
}

func TestEngine_Explain_AgreesWithEvaluate(t *testing.T) {
	engine := sampleEngine(t)
	txn := testutil.NewTxn("1", "UBER *TRIP", "-18").WithCategory("Transport").Build()

	m := engine.Evaluate(txn)
	var applied []string
	for _, tr := range engine.Explain(txn) {
		if tr.Applied {
			applied = append(applied, tr.Rule)
		}
	}
	assert.Equal(t, m.MatchedRules, applied)
}
