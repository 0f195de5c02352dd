package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Operator is a comparison applied to a transaction's absolute amount.
type Operator string

// Amount comparison operators.
const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

var operatorAliases = map[string]Operator{
	">":  OpGreater,
	"gt": OpGreater,
	"<":  OpLess,
	"lt": OpLess,
	">=": OpGreaterEqual,
	"ge": OpGreaterEqual,
	"<=": OpLessEqual,
	"le": OpLessEqual,
	"==": OpEqual,
	"=":  OpEqual,
	"eq": OpEqual,
	"!=": OpNotEqual,
	"ne": OpNotEqual,
}

// ParseOperator accepts symbolic operators and their two-letter aliases.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid amount operator %q", s)
	}
	return op, nil
}

// AmountCondition compares the absolute transaction amount against a threshold.
type AmountCondition struct {
	Operator  Operator        `json:"operator"`
	Threshold decimal.Decimal `json:"threshold"`
}

// NewAmountCondition builds a condition from an operator and a decimal string.
func NewAmountCondition(operator, threshold string) (*AmountCondition, error) {
	op, err := ParseOperator(operator)
	if err != nil {
		return nil, err
	}
	value, err := decimal.NewFromString(strings.TrimSpace(threshold))
	if err != nil {
		return nil, fmt.Errorf("invalid amount threshold %q: %w", threshold, err)
	}
	return &AmountCondition{Operator: op, Threshold: value}, nil
}

// Matches reports whether abs(amount) satisfies the condition.
// A nil condition is always satisfied.
func (c *AmountCondition) Matches(amount decimal.Decimal) bool {
	if c == nil {
		return true
	}

	cmp := amount.Abs().Cmp(c.Threshold)
	switch c.Operator {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	}

	return false
}

func (c *AmountCondition) String() string {
	if c == nil {
		return "any amount"
	}
	return fmt.Sprintf("abs(amount) %s %s", c.Operator, c.Threshold.String())
}
