// Package similarity discovers transactions that plausibly denote the same
// merchant or recurring payment as a reference transaction.
//
// Bank descriptions encode merchant tokens inconsistently ("VDC-TESCO",
// "TESCO STORES 4521"). An exact substring search over the whole corpus is
// too narrow and full fuzzy comparison too expensive, so candidates are
// narrowed with a cheap substring pre-filter before fuzzy scoring.
package similarity

import (
	"regexp"
	"strings"

	"github.com/finsort/finsort/internal/model"
)

// DefaultThreshold is the minimum Dice similarity for a candidate to be
// accepted on text score alone. Empirically chosen; configurable via
// similarity.threshold.
const DefaultThreshold = 0.6

// Merchant token extractors, most specific first.
var (
	merchantCodePattern = regexp.MustCompile(`[A-Z]+-[A-Z]+`)
	storeNamePattern    = regexp.MustCompile(`[A-Z]+\s+[A-Z]+(\s+\d+)?`)
)

// Finder scores description similarity between transactions.
type Finder struct {
	Threshold float64
}

// NewFinder creates a finder with the given acceptance threshold; values
// of zero or below fall back to DefaultThreshold.
func NewFinder(threshold float64) *Finder {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Finder{Threshold: threshold}
}

// FindSimilar returns corpus transactions judged similar to the reference.
// A candidate is accepted when its Dice similarity to the reference
// description exceeds the threshold, or when both descriptions carry the
// same code-dash merchant token; the OR is deliberate so exact merchant
// code repeats survive trailing reference numbers. The reference itself is
// not excluded here; callers filter it out.
func (f *Finder) FindSimilar(reference model.Transaction, corpus []model.Transaction) []model.Transaction {
	token := ExtractMerchantToken(reference.Description)
	if token == "" {
		return nil
	}
	fragment := strings.ToLower(firstFragment(token))
	refDesc := strings.ToLower(reference.Description)
	refCode := merchantCodePattern.FindString(reference.Description)

	var matches []model.Transaction
	for _, candidate := range corpus {
		if !descriptionContains(&candidate, fragment) {
			continue
		}
		score := DiceCoefficient(refDesc, strings.ToLower(candidate.Description))
		if score > f.Threshold {
			matches = append(matches, candidate)
			continue
		}
		if refCode != "" && merchantCodePattern.FindString(candidate.Description) == refCode {
			matches = append(matches, candidate)
		}
	}
	return matches
}

// ExtractMerchantToken pulls the token most likely to identify the
// merchant out of a statement description. Extractors run in order of
// specificity: a code-dash-word token, then a two-word store name with an
// optional numeric store code, then the first one or two whitespace
// tokens. The first hit wins.
func ExtractMerchantToken(description string) string {
	if token := merchantCodePattern.FindString(description); token != "" {
		return token
	}
	if token := storeNamePattern.FindString(description); token != "" {
		return token
	}
	fields := strings.Fields(description)
	switch {
	case len(fields) >= 2:
		return fields[0] + " " + fields[1]
	case len(fields) == 1:
		return fields[0]
	}
	return ""
}

// firstFragment returns the leading delimiter-separated piece of a token,
// the cheap needle for the coarse corpus filter.
func firstFragment(token string) string {
	fragments := strings.FieldsFunc(token, func(r rune) bool {
		return r == '-' || r == ' ' || r == '\t'
	})
	if len(fragments) == 0 {
		return token
	}
	return fragments[0]
}

// descriptionContains reports whether any of the transaction's description
// fields contains the fragment, case-insensitively.
func descriptionContains(txn *model.Transaction, fragment string) bool {
	for _, desc := range []string{txn.Description, txn.Description2, txn.Description3} {
		if desc != "" && strings.Contains(strings.ToLower(desc), fragment) {
			return true
		}
	}
	return false
}

// DiceCoefficient computes the Sørensen–Dice bigram overlap of two
// strings, 0.0 to 1.0. Bigrams are taken over runes so multi-byte
// characters in a description count as one symbol. Inputs should already
// be lower-cased.
func DiceCoefficient(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0.0
	}

	counts := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		counts[string(ra[i:i+2])]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bigram := string(rb[i : i+2])
		if counts[bigram] > 0 {
			counts[bigram]--
			shared++
		}
	}

	return 2.0 * float64(shared) / float64(len(ra)+len(rb)-2)
}
