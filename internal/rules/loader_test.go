package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SampleRules(t *testing.T) {
	set, err := Parse("sample", strings.NewReader(testutil.SampleRulesYAML))
	require.NoError(t, err)

	require.Len(t, set.CategoryRules, 4)
	require.Len(t, set.LabelRules, 3)
	assert.Equal(t, 7, set.Len())

	first := set.CategoryRules[0]
	assert.Equal(t, "woolworths-groceries", first.Name)
	assert.Equal(t, "Groceries", first.Category)
	assert.Equal(t, 95, first.Confidence)
	assert.Equal(t, []string{"woolworths", "coles"}, first.Patterns)
	assert.Equal(t, []string{"woolworths petrol"}, first.Exclusions)

	// File order is priority order.
	assert.Equal(t, []string{"Groceries", "Shopping", "Dining Out", "Transport"}, set.Categories())

	large := set.LabelRules[1]
	require.NotNil(t, large.Conditions.Amount)
	assert.Equal(t, OpGreater, large.Conditions.Amount.Operator)
	assert.True(t, large.Conditions.Amount.Threshold.Equal(decimal.NewFromInt(100)))

	assert.True(t, set.LabelRules[2].Conditions.OnlyUncategorized)
}

func TestParse_Defaults(t *testing.T) {
	doc := `
rules:
  - type: category
    name: netflix
    patterns: ["netflix"]
    category: Entertainment
    amount:
      operator: lt
      value: 30
  - type: label
    name: tags
    labels: ["a", "b", "a", " "]
`
	set, err := Parse("defaults", strings.NewReader(doc))
	require.NoError(t, err)

	rule := set.CategoryRules[0]
	assert.Equal(t, DefaultConfidence, rule.Confidence)
	require.NotNil(t, rule.Amount)
	assert.Equal(t, OpLess, rule.Amount.Operator)

	assert.Equal(t, []string{"a", "b"}, set.LabelRules[0].Labels)
}

func TestParse_EmptyDocument(t *testing.T) {
	set, err := Parse("empty", strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		problem string
	}{
		{
			name: "missing name",
			doc: `
rules:
  - type: category
    patterns: ["x"]
    category: Shopping`,
			problem: "missing name",
		},
		{
			name: "duplicate name",
			doc: `
rules:
  - {type: category, name: dup, patterns: ["x"], category: A}
  - {type: category, name: dup, patterns: ["y"], category: B}`,
			problem: "duplicate name",
		},
		{
			name: "missing type",
			doc: `
rules:
  - {name: untyped, patterns: ["x"], category: A}`,
			problem: "missing type",
		},
		{
			name: "unknown type",
			doc: `
rules:
  - {type: budget, name: b}`,
			problem: `unknown type "budget"`,
		},
		{
			name: "no patterns",
			doc: `
rules:
  - {type: category, name: empty, category: A}`,
			problem: "at least one pattern",
		},
		{
			name: "pattern empty after normalization",
			doc: `
rules:
  - {type: category, name: stars, patterns: ["***"], category: A}`,
			problem: "empty after normalization",
		},
		{
			name: "missing category",
			doc: `
rules:
  - {type: category, name: nocat, patterns: ["x"]}`,
			problem: "missing category",
		},
		{
			name: "confidence out of range",
			doc: `
rules:
  - {type: category, name: sure, patterns: ["x"], category: A, confidence: 101}`,
			problem: "outside 0-100",
		},
		{
			name: "bad amount operator",
			doc: `
rules:
  - {type: category, name: amt, patterns: ["x"], category: A, amount: "~ 10"}`,
			problem: "invalid amount operator",
		},
		{
			name: "malformed amount shorthand",
			doc: `
rules:
  - {type: label, name: big, labels: [Big], conditions: {amount: "100"}}`,
			problem: "shorthand",
		},
		{
			name: "label without labels",
			doc: `
rules:
  - {type: label, name: nolabels, conditions: {categories: [A]}}`,
			problem: "at least one label",
		},
		{
			name:    "malformed yaml",
			doc:     "rules: [",
			problem: "malformed YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Parse("test.yaml", strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Nil(t, set)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, strings.Join(verr.Problems, "\n"), tt.problem)
		})
	}
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	doc := `
rules:
  - {type: category, name: a}
  - {type: mystery, name: b}
  - {type: label, name: c}
`
	_, err := Parse("many", strings.NewReader(doc))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 4)
	assert.Contains(t, err.Error(), "many: 4 invalid rule definition(s)")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.SampleRulesYAML), 0o600))

	set, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, set.Source)
	assert.Equal(t, 7, set.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_WithPatternNormalizer(t *testing.T) {
	doc := `
rules:
  - type: category
    name: store-number
    category: Shopping
    patterns: ["#1234"]
`
	// The default normalizer treats a bare store number as noise.
	_, err := Parse("inline", strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty after normalization")

	digits := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, s)
	}
	set, err := Parse("inline", strings.NewReader(doc), WithPatternNormalizer(digits))
	require.NoError(t, err)

	engine := NewEngine(set, WithNormalizer(digits))
	m := engine.Evaluate(testutil.NewTxn("1", "STORE 1234", "-5").Build())
	assert.Equal(t, "Shopping", m.Category)
}

func TestRuleSet_Lookup(t *testing.T) {
	set := NewRuleSet("inline",
		CategoryRule{Name: "c1", Category: "A", Patterns: []string{"a"}},
		LabelRule{Name: "l1", Labels: []string{"L"}},
	)

	r, ok := set.Lookup("l1")
	require.True(t, ok)
	assert.Equal(t, KindLabel, r.Kind())

	r, ok = set.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, KindCategory, r.Kind())

	_, ok = set.Lookup("nope")
	assert.False(t, ok)

	var empty *RuleSet
	assert.Equal(t, 0, empty.Len())
}
