// Package merchant canonicalizes payee strings from bank feeds so that rules and
// merchant grouping compare merchants rather than receipt noise.
package merchant

import (
	"regexp"
	"strings"
	"unicode"
)

// legalSuffix matches a trailing legal-entity designator. It is applied
// repeatedly so "Acme Holdings Pty Ltd Inc" loses both suffixes.
var legalSuffix = regexp.MustCompile(`\s+(pty\.?\s+ltd|pty\.?\s+limited|pty|inc|llc|ltd|limited|corp|corporation|plc|gmbh)\.?$`)

// alnumRun matches a maximal run of letters and digits. Reference ids are
// stripped per run so punctuation-joined names like "coles-4821" keep the name.
var alnumRun = regexp.MustCompile(`[\p{L}\p{Nd}]+`)

// minIDLength is the shortest token treated as a reference number or transaction id.
const minIDLength = 4

// Normalizer turns a raw payee into its canonical comparable form.
type Normalizer func(payee string) string

// Normalize returns the canonical form of a payee. It is deterministic, pure and
// case-insensitive; the steps run in a fixed order and each works on the output of
// the previous one.
func Normalize(payee string) string {
	s := strings.TrimSpace(strings.ToLower(payee))

	for {
		stripped := strings.TrimSpace(legalSuffix.ReplaceAllString(s, ""))
		if stripped == s {
			break
		}
		s = stripped
	}

	s = alnumRun.ReplaceAllStringFunc(s, func(run string) string {
		if isReferenceToken(run) {
			return " "
		}
		return run
	})

	s = strings.ReplaceAll(s, "*", " ")

	// Separators left dangling by a removed id ("coles-", "woolworths/") go too.
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, isSeparator)
		if f != "" {
			kept = append(kept, f)
		}
	}

	return strings.Join(kept, " ")
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// isReferenceToken reports whether an alphanumeric run looks like a receipt
// number or transaction id: long and either purely numeric or mixing letters
// and digits.
func isReferenceToken(tok string) bool {
	if len([]rune(tok)) < minIDLength {
		return false
	}

	hasDigit, hasLetter, allDigits := false, false, true
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
			allDigits = false
		default:
			allDigits = false
		}
	}

	return (hasDigit && hasLetter) || allDigits
}
