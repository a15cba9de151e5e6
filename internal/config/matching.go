package config

import (
	"github.com/distress-leads/internal/matcher"
)

// MatcherThresholds reads the fuzzy tier cut-offs from the environment,
// falling back to the tuned defaults. Passed explicitly into the matcher so
// tests can run different threshold sets in parallel.
func MatcherThresholds() matcher.Thresholds {
	defaults := matcher.DefaultThresholds()
	return matcher.Thresholds{
		FuzzyHigh: GetEnvFloat("FUZZY_HIGH_THRESHOLD", defaults.FuzzyHigh),
		FuzzyLow:  GetEnvFloat("FUZZY_LOW_THRESHOLD", defaults.FuzzyLow),
	}
}
