package batch

import (
	"fmt"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// Skip reasons reported in BatchResult.SkipReasons.
const (
	ReasonHasCategory         = "has_category"
	ReasonConfidenceNotHigher = "confidence_not_higher"
	ReasonCategorySame        = "category_same"
	ReasonNeedsReview         = "needs_review"
	ReasonNoCategory          = "no_category"
)

// Decision says whether APPLY mode may write a result for a transaction.
type Decision struct {
	Reason  string
	Process bool
}

func proceed() Decision { return Decision{Process: true} }

func skip(reason string) Decision { return Decision{Reason: reason} }

// ShouldProcess applies the update strategy. A nil result means the workflow
// produced nothing for the transaction. Unknown strategies are an error.
func ShouldProcess(strategy model.UpdateStrategy, txn model.Transaction, result *model.CategorizationResult) (Decision, error) {
	switch strategy {
	case model.StrategySkipExisting, model.StrategyReplaceAll,
		model.StrategyUpgradeConfidence, model.StrategyReplaceIfDifferent:
	default:
		return Decision{}, fmt.Errorf("%w: %q", common.ErrUnknownStrategy, strategy)
	}

	if !txn.HasCategory() {
		return proceed(), nil
	}

	switch strategy {
	case model.StrategySkipExisting:
		return skip(ReasonHasCategory), nil

	case model.StrategyUpgradeConfidence:
		if result == nil {
			return proceed(), nil
		}
		recorded, _ := txn.RecordedConfidence()
		if result.Confidence > recorded {
			return proceed(), nil
		}
		return skip(ReasonConfidenceNotHigher), nil

	case model.StrategyReplaceIfDifferent:
		if result == nil {
			return proceed(), nil
		}
		if !model.SameCategory(Candidate(result), txn.CategoryTitle()) {
			return proceed(), nil
		}
		return skip(ReasonCategorySame), nil
	}

	return proceed(), nil
}

// Candidate is the category a result would write. A conflict keeps the
// existing category, so its suggestion is never a candidate.
func Candidate(result *model.CategorizationResult) string {
	if result == nil {
		return ""
	}
	return result.Category
}
