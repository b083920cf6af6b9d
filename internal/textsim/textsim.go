// Package textsim provides character n-gram text similarity for near-duplicate
// article detection.
package textsim

import "strings"

const (
	// ngramSize is the character n-gram width used for comparison.
	ngramSize = 3

	// DefaultThreshold is the Jaccard similarity above which two texts are
	// considered duplicates.
	DefaultThreshold = 0.85

	// maxLengthRatioDiff rejects pairs whose lengths differ by more than
	// this fraction of the longer text before computing n-grams.
	maxLengthRatioDiff = 0.3

	// PrefixLength is how much of an article body participates in
	// duplicate comparison.
	PrefixLength = 300

	// MinPrefixLength is the shortest prefix considered meaningful; shorter
	// prefixes match too easily.
	MinPrefixLength = 50
)

// NormalizePrefix lowercases, truncates, and whitespace-collapses the leading
// portion of a text for similarity comparison. Returns "" when the result is
// too short to be meaningful.
func NormalizePrefix(text string) string {
	if len(text) > PrefixLength {
		text = text[:PrefixLength]
	}

	prefix := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if len(prefix) <= MinPrefixLength {
		return ""
	}

	return prefix
}

// Similar reports whether two texts exceed the given Jaccard similarity
// threshold over character trigrams. Pairs with a large length difference
// are rejected without computing n-grams.
func Similar(a, b string, threshold float64) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	lenDiff := len(a) - len(b)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	maxLen := max(len(a), len(b))
	if float64(lenDiff)/float64(maxLen) > maxLengthRatioDiff {
		return false
	}

	return jaccard(ngrams(a), ngrams(b)) >= threshold
}

// ngrams returns the set of character n-grams of the text.
func ngrams(text string) map[string]struct{} {
	set := make(map[string]struct{})
	if len(text) < ngramSize {
		set[text] = struct{}{}
		return set
	}
	for i := 0; i+ngramSize <= len(text); i++ {
		set[text[i:i+ngramSize]] = struct{}{}
	}
	return set
}

// jaccard computes |a∩b| / |a∪b| for two n-gram sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for gram := range a {
		if _, ok := b[gram]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
