// Package rules implements the declarative rule model and the two-phase rule
// engine: ordered category rules (first match wins) followed by every label rule.
package rules

import (
	"strings"
)

// Kind discriminates the two rule shapes.
type Kind string

// Rule kinds as written in rule files.
const (
	KindCategory Kind = "category"
	KindLabel    Kind = "label"
)

// DefaultConfidence is used when a category rule omits its confidence.
const DefaultConfidence = 90

// Rule is the closed set of rule shapes. Only CategoryRule and LabelRule implement it.
type Rule interface {
	RuleName() string
	Kind() Kind
	sealed()
}

// CategoryRule assigns a category when any pattern matches the normalized payee.
type CategoryRule struct {
	Amount     *AmountCondition `json:"amount,omitempty"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Patterns   []string         `json:"patterns"`
	Exclusions []string         `json:"exclusions,omitempty"`
	Accounts   []string         `json:"accounts,omitempty"`
	Confidence int              `json:"confidence"`
}

// RuleName returns the rule's unique name.
func (r CategoryRule) RuleName() string { return r.Name }

// Kind returns KindCategory.
func (r CategoryRule) Kind() Kind { return KindCategory }

func (CategoryRule) sealed() {}

// LabelConditions are the predicates a label rule evaluates.
type LabelConditions struct {
	Amount            *AmountCondition `json:"amount,omitempty"`
	Categories        []string         `json:"categories,omitempty"`
	Accounts          []string         `json:"accounts,omitempty"`
	OnlyUncategorized bool             `json:"only_uncategorized,omitempty"`
}

// LabelRule attaches labels to every transaction satisfying its conditions.
type LabelRule struct {
	Name       string          `json:"name"`
	Labels     []string        `json:"labels"`
	Conditions LabelConditions `json:"conditions"`
}

// RuleName returns the rule's unique name.
func (r LabelRule) RuleName() string { return r.Name }

// Kind returns KindLabel.
func (r LabelRule) Kind() Kind { return KindLabel }

func (LabelRule) sealed() {}

// containsFold reports whether list holds value, ignoring case and surrounding space.
func containsFold(list []string, value string) bool {
	value = strings.TrimSpace(value)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}
