// Package trigram provides an in-memory string similarity measure compatible
// with the contract of PostgreSQL's pg_trgm similarity(): symmetric, 1.0 for
// identical strings, and monotonic in shared trigram overlap. It backs the
// in-memory property store; the Postgres store uses pg_trgm itself.
package trigram

import "strings"

// Extract returns the set of trigrams for a string. Following pg_trgm, each
// word is padded with two leading and one trailing space before windowing,
// so word boundaries produce their own trigrams. Windows are rune-wise, not
// byte-wise, so multi-byte names score the same as pg_trgm's character
// trigrams.
func Extract(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity returns the Jaccard similarity of the trigram sets of a and b,
// in [0, 1]. Identical strings score 1.0 even when they produce no trigrams.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return SetSimilarity(Extract(a), Extract(b))
}

// SetSimilarity compares two pre-extracted trigram sets. Useful when one side
// is probed repeatedly, e.g. scanning a store against a fixed subject name.
func SetSimilarity(ta, tb map[string]struct{}) float64 {
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	// Iterate the smaller set.
	if len(tb) < len(ta) {
		ta, tb = tb, ta
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}
