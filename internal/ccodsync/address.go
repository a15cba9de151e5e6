package ccodsync

import (
	"regexp"
	"strings"

	postal "github.com/openvenues/gopostal/parser"
)

// UK postcode shape, used to sanity-check what libpostal labels a postcode.
var rePostcode = regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d[\dA-Z]?\s*\d[A-Z]{2}\b`)

// extractPostcode pulls a postcode out of the free-text CCOD property
// address via libpostal, falling back to a regex scan when parsing finds
// none. Addresses in the extract are unpunctuated and inconsistently
// ordered, which is exactly what libpostal handles well.
func extractPostcode(address string) string {
	if address == "" {
		return ""
	}

	for _, component := range postal.ParseAddress(address) {
		if component.Label == "postcode" {
			if m := rePostcode.FindString(component.Value); m != "" {
				return canonicalPostcode(m)
			}
		}
	}

	if m := rePostcode.FindString(address); m != "" {
		return canonicalPostcode(m)
	}
	return ""
}

func canonicalPostcode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
