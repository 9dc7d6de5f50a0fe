// Package matching centralizes name similarity and mention scoring
// configuration.
package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity computes a normalized closeness score between two name strings.
// The result is in [0,1], symmetric, and 1.0 exactly when the normalized
// forms are equal. Scores decrease monotonically with edit distance.
func Similarity(a, b string) float64 {
	a = NormalizeName(a)
	b = NormalizeName(b)

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// NormalizeName lowercases, trims, and collapses internal whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// EmailDomain extracts the lowercased domain portion of an email address.
// Returns "" when the address has no domain.
func EmailDomain(email string) string {
	_, domain, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(domain))
}
