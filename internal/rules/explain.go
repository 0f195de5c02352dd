package rules

import (
	"fmt"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// Trace records how one rule responded to a transaction.
type Trace struct {
	Rule    string `json:"rule"`
	Kind    Kind   `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Matched bool   `json:"matched"`
	Applied bool   `json:"applied"`
}

// Explain evaluates every rule and reports why each did or did not fire.
// Category rules after the first match are reported as shadowed.
func (e *Engine) Explain(txn model.Transaction) []Trace {
	payee := e.normalize(txn.Payee)
	traces := make([]Trace, 0, e.set.Len())

	winner := ""
	for _, c := range e.categoryRules {
		ok, reason := c.matches(txn, payee)
		t := Trace{Rule: c.rule.Name, Kind: KindCategory, Matched: ok, Reason: reason}
		if ok {
			if winner == "" {
				winner = c.rule.Name
				t.Applied = true
				t.Reason = fmt.Sprintf("assigns %q at %d%%", c.rule.Category, c.rule.Confidence)
			} else {
				t.Reason = fmt.Sprintf("shadowed by earlier rule %q", winner)
			}
		}
		traces = append(traces, t)
	}

	effective := txn.CategoryTitle()
	if rule, ok := e.firstCategoryMatch(txn, payee); ok {
		effective = rule.Category
	}

	for _, r := range e.set.LabelRules {
		ok, reason := labelMatches(r, txn, effective)
		t := Trace{Rule: r.Name, Kind: KindLabel, Matched: ok, Applied: ok, Reason: reason}
		if ok {
			t.Reason = fmt.Sprintf("adds %v", r.Labels)
		}
		traces = append(traces, t)
	}

	return traces
}
