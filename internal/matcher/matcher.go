// Package matcher resolves insolvency subjects against the property store,
// combining authoritative company-number lookups with trigram fuzzy name
// matching.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/distress-leads/internal/gazette"
	"github.com/distress-leads/internal/normalize"
	"github.com/distress-leads/internal/store"
)

// ErrNoUsableSubject is returned when a subject carries neither a usable
// company name nor a company number. It is rejected before any store query.
var ErrNoUsableSubject = errors.New("matcher: subject has neither usable name nor company number")

// Strength ranks how a candidate was matched.
type Strength int

const (
	FuzzyLow Strength = iota + 1
	FuzzyHigh
	Exact
)

func (s Strength) String() string {
	switch s {
	case Exact:
		return "exact"
	case FuzzyHigh:
		return "fuzzy_high"
	case FuzzyLow:
		return "fuzzy_low"
	default:
		return "unknown"
	}
}

// Candidate is one property record matched to a subject.
type Candidate struct {
	Record   store.PropertyRecord
	Strength Strength
	// Score is 1.0 for exact number matches, otherwise the trigram
	// similarity of the normalized names.
	Score float64
	// Basis names the field that matched: "companyNumber" or "companyName".
	Basis string
}

// Thresholds hold the fuzzy tier cut-offs. Scores below FuzzyLow are
// discarded outright; the precision/recall trade-off is a deployment choice.
type Thresholds struct {
	FuzzyHigh float64
	FuzzyLow  float64
}

// DefaultThresholds returns the tuned default cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{FuzzyHigh: 0.8, FuzzyLow: 0.5}
}

// NumberResolver backfills a missing company number from a registry, e.g.
// Companies House. Implementations return "" when no confident match exists;
// errors are treated as a lookup miss, not a batch failure.
type NumberResolver interface {
	ResolveNumber(ctx context.Context, companyName string) (string, error)
}

// Matcher queries a property index for candidate titles. A nil resolver
// disables number backfill.
type Matcher struct {
	index      store.PropertyIndex
	resolver   NumberResolver
	thresholds Thresholds
}

// New creates a matcher over the given index.
func New(index store.PropertyIndex, resolver NumberResolver, thresholds Thresholds) *Matcher {
	return &Matcher{index: index, resolver: resolver, thresholds: thresholds}
}

// FindCandidates returns the ranked candidate set for one subject.
//
// Exact company-number matches are authoritative and always score 1.0; the
// fuzzy name search still runs to surface additional titles whose recorded
// number is stale or missing, but never overrides an exact tag on the same
// title. Results are sorted by strength, then score, then title number, so
// two calls against the same store contents return the same sequence.
// An empty result is a valid non-error outcome.
func (m *Matcher) FindCandidates(ctx context.Context, subject gazette.InsolvencySubject) ([]Candidate, error) {
	nameKey, nameErr := normalize.CompanyKey(subject.CompanyName)
	number := strings.ToUpper(strings.TrimSpace(subject.CompanyNumber))

	if nameErr != nil && number == "" {
		return nil, ErrNoUsableSubject
	}

	if number == "" && m.resolver != nil {
		resolved, err := m.resolver.ResolveNumber(ctx, subject.CompanyName)
		if err != nil {
			log.Printf("registry lookup failed for %q: %v", subject.CompanyName, err)
		} else {
			number = resolved
		}
	}

	byTitle := make(map[string]Candidate)

	if number != "" {
		records, err := m.index.FindByCompanyNumber(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("exact match query: %w", err)
		}
		for _, r := range records {
			byTitle[r.TitleNumber] = Candidate{
				Record:   r,
				Strength: Exact,
				Score:    1.0,
				Basis:    "companyNumber",
			}
		}
	}

	if nameErr == nil {
		scored, err := m.index.SimilarByName(ctx, nameKey, m.thresholds.FuzzyLow)
		if err != nil {
			return nil, fmt.Errorf("fuzzy match query: %w", err)
		}
		for _, sr := range scored {
			// An exact match on the same title subsumes the fuzzy hit.
			if existing, ok := byTitle[sr.Record.TitleNumber]; ok && existing.Strength == Exact {
				continue
			}
			strength := FuzzyLow
			if sr.Score >= m.thresholds.FuzzyHigh {
				strength = FuzzyHigh
			}
			byTitle[sr.Record.TitleNumber] = Candidate{
				Record:   sr.Record,
				Strength: strength,
				Score:    sr.Score,
				Basis:    "companyName",
			}
		}
	}

	candidates := make([]Candidate, 0, len(byTitle))
	for _, c := range byTitle {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Strength != candidates[j].Strength {
			return candidates[i].Strength > candidates[j].Strength
		}
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Record.TitleNumber < candidates[j].Record.TitleNumber
	})
	return candidates, nil
}
