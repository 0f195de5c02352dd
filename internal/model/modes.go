package model

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
)

// IntelligenceMode selects how aggressively the external classifier is used.
type IntelligenceMode string

// Intelligence mode constants.
const (
	ModeConservative IntelligenceMode = "conservative"
	ModeSmart        IntelligenceMode = "smart"
	ModeAggressive   IntelligenceMode = "aggressive"
)

// UpdateStrategy governs whether an already-categorized transaction may be re-categorized.
type UpdateStrategy string

// Update strategy constants.
const (
	StrategySkipExisting       UpdateStrategy = "skip_existing"
	StrategyReplaceAll         UpdateStrategy = "replace_all"
	StrategyUpgradeConfidence  UpdateStrategy = "upgrade_confidence"
	StrategyReplaceIfDifferent UpdateStrategy = "replace_if_different"
)

// ProcessingMode controls whether a batch run mutates anything.
type ProcessingMode string

// Processing mode constants.
const (
	ProcessingDryRun   ProcessingMode = "dry_run"
	ProcessingValidate ProcessingMode = "validate"
	ProcessingApply    ProcessingMode = "apply"
)

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}

// ParseIntelligenceMode parses a textual intelligence mode.
func ParseIntelligenceMode(s string) (IntelligenceMode, error) {
	switch m := IntelligenceMode(normalizeEnum(s)); m {
	case ModeConservative, ModeSmart, ModeAggressive:
		return m, nil
	default:
		return "", fmt.Errorf("%w: intelligence mode %q", common.ErrUnknownMode, s)
	}
}

// ParseUpdateStrategy parses a textual update strategy.
func ParseUpdateStrategy(s string) (UpdateStrategy, error) {
	switch st := UpdateStrategy(normalizeEnum(s)); st {
	case StrategySkipExisting, StrategyReplaceAll, StrategyUpgradeConfidence, StrategyReplaceIfDifferent:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownStrategy, s)
	}
}

// ParseProcessingMode parses a textual processing mode.
func ParseProcessingMode(s string) (ProcessingMode, error) {
	switch m := ProcessingMode(normalizeEnum(s)); m {
	case ProcessingDryRun, ProcessingValidate, ProcessingApply:
		return m, nil
	default:
		return "", fmt.Errorf("%w: processing mode %q", common.ErrUnknownMode, s)
	}
}
