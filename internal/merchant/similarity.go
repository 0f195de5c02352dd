package merchant

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Similarity scores how alike two payees are after normalization.
// The score is a sequence-alignment ratio in [0,1]: twice the number of aligned
// characters over the combined length. It is symmetric and only reaches 1.0
// when the normalized strings are identical. Payees that are all reference
// noise normalize to nothing and are compared by their raw lowercased text.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" && nb == "" {
		na = strings.ToLower(strings.TrimSpace(a))
		nb = strings.ToLower(strings.TrimSpace(b))
	}
	return ratio(na, nb)
}

// ratio compares two already-normalized strings.
func ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	// Substitution cost 2 makes the distance len(a)+len(b)-2*LCS, so the
	// library ratio equals the matching-blocks ratio.
	return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}
