package engine

import (
	"fmt"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// ConfirmedConfidence is assigned when the classifier confirms a rule's category.
const ConfirmedConfidence = 90

// Policy bundles the escalation settings of an intelligence mode.
type Policy struct {
	Mode model.IntelligenceMode
	// BatchSize caps how many requests go to the classifier per call.
	BatchSize int
	// ValidateMin and ValidateMax bound the inclusive confidence band that is
	// re-validated. A band with ValidateMax < ValidateMin is empty.
	ValidateMin int
	ValidateMax int
	// AlwaysReview marks every classifier answer as needing human review.
	AlwaysReview bool
}

// Policies maps each intelligence mode to its policy.
var Policies = map[model.IntelligenceMode]Policy{
	model.ModeConservative: {
		Mode:         model.ModeConservative,
		BatchSize:    20,
		ValidateMin:  1,
		ValidateMax:  0,
		AlwaysReview: true,
	},
	model.ModeSmart: {
		Mode:        model.ModeSmart,
		BatchSize:   50,
		ValidateMin: 70,
		ValidateMax: 89,
	},
	model.ModeAggressive: {
		Mode:        model.ModeAggressive,
		BatchSize:   100,
		ValidateMin: 50,
		ValidateMax: 79,
	},
}

// PolicyFor returns the policy for a mode.
func PolicyFor(mode model.IntelligenceMode) (Policy, error) {
	p, ok := Policies[mode]
	if !ok {
		return Policy{}, fmt.Errorf("%w: intelligence mode %q", common.ErrUnknownMode, mode)
	}
	return p, nil
}

// NeedsValidation reports whether a rule confidence falls inside the band.
func (p Policy) NeedsValidation(confidence int) bool {
	if p.ValidateMax < p.ValidateMin {
		return false
	}
	return confidence >= p.ValidateMin && confidence <= p.ValidateMax
}
