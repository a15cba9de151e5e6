package normalize

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyName is returned when a name is empty or collapses to nothing.
var ErrEmptyName = errors.New("normalize: empty company name")

// SuffixRules strips UK legal-entity designators from the end of a company name.
// Suffixes are only removed as trailing tokens so that names which legitimately
// contain words like "LIMITED" mid-string are left alone.
type SuffixRules struct {
	phrases [][]string
}

// DefaultSuffixes lists the designators seen across Gazette notices and the
// Land Registry CCOD extract. Multi-word entries are matched as whole phrases.
var DefaultSuffixes = []string{
	"PUBLIC LIMITED COMPANY",
	"LIMITED LIABILITY PARTNERSHIP",
	"COMMUNITY INTEREST COMPANY",
	"LIMITED",
	"LTD",
	"PLC",
	"LLP",
	"LP",
	"CIC",
	"CIO",
	"UNLIMITED",
	"INCORPORATED",
	"INC",
}

// NewSuffixRules builds suffix rules from a list of designator phrases.
func NewSuffixRules(suffixes []string) *SuffixRules {
	sr := &SuffixRules{}
	for _, s := range suffixes {
		tokens := strings.Fields(strings.ToUpper(s))
		if len(tokens) > 0 {
			sr.phrases = append(sr.phrases, tokens)
		}
	}
	return sr
}

// DefaultSuffixRules returns suffix rules for the standard UK designator list.
func DefaultSuffixRules() *SuffixRules {
	return NewSuffixRules(DefaultSuffixes)
}

// Strip removes trailing designator tokens. Stripping never empties the name:
// a company actually called "LIMITED LTD" keeps its final token.
func (sr *SuffixRules) Strip(tokens []string) []string {
	for {
		stripped := false
		for _, phrase := range sr.phrases {
			n := len(phrase)
			if len(tokens) <= n {
				continue
			}
			if tailEquals(tokens, phrase) {
				tokens = tokens[:len(tokens)-n]
				stripped = true
				break
			}
		}
		if !stripped {
			return tokens
		}
	}
}

func tailEquals(tokens, phrase []string) bool {
	offset := len(tokens) - len(phrase)
	for i, p := range phrase {
		if tokens[offset+i] != p {
			return false
		}
	}
	return true
}

// CompanyKey canonicalizes a free-text company name into a comparison key
// using the default suffix rules.
func CompanyKey(raw string) (string, error) {
	return CompanyKeyWithRules(raw, DefaultSuffixRules())
}

// CompanyKeyWithRules canonicalizes a company name:
//   - uppercases and trims
//   - rewrites "&" as "AND"
//   - replaces punctuation with spaces and collapses whitespace runs
//   - drops a leading "THE"
//   - strips trailing legal designators via the supplied rules
//
// The result is deterministic for a given input and rule set, so it can be
// used both as a fuzzy-search probe and inside dedup ledger keys.
func CompanyKeyWithRules(raw string, rules *SuffixRules) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrEmptyName
	}

	s = strings.ReplaceAll(s, "&", " AND ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return "", ErrEmptyName
	}

	if len(tokens) > 1 && tokens[0] == "THE" {
		tokens = tokens[1:]
	}

	tokens = rules.Strip(tokens)

	return strings.Join(tokens, " "), nil
}
