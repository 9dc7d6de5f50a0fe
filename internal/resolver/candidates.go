package resolver

import (
	"sort"
	"strings"

	"contact-crm/internal/matching"
)

// FuzzyCandidate carries a candidate together with its raw name similarity,
// which feeds the context scorer downstream.
type FuzzyCandidate struct {
	Candidate  CandidateContact
	Similarity float64
}

// CandidateSet is the generator's output: either a single exact match or an
// ordered fuzzy list, never both.
type CandidateSet struct {
	Exact *CandidateContact
	Fuzzy []FuzzyCandidate
}

// CandidateGenerator produces candidates for one mention from the owner's
// contact snapshot.
type CandidateGenerator struct {
	cfg matching.Config
}

// NewCandidateGenerator creates a candidate generator with the given scoring
// configuration.
func NewCandidateGenerator(cfg matching.Config) *CandidateGenerator {
	return &CandidateGenerator{cfg: cfg}
}

// Generate runs the exact stage and, only when it finds nothing, the fuzzy
// stage. A single candidate whose full name or first name equals the
// normalized mention name is an exact match and short-circuits fuzzy search.
// When several candidates hit the name equally (two Scotts in one contact
// book), the name alone cannot decide between them: the tied candidates are
// returned as fuzzy candidates at similarity 1.0 so context corroboration
// ranks them downstream. The fuzzy stage keeps candidates above the
// similarity floor, ordered by descending similarity and capped at
// MaxCandidates.
func (g *CandidateGenerator) Generate(normalizedName string, candidates []CandidateContact) CandidateSet {
	name := matching.NormalizeName(normalizedName)

	// Exact stage
	var hits []int
	for i, candidate := range candidates {
		fullName := matching.NormalizeName(candidate.FullName())
		firstOnly := strings.ToLower(strings.TrimSpace(candidate.FirstName))
		if name == fullName || name == firstOnly {
			hits = append(hits, i)
		}
	}
	if len(hits) == 1 {
		exact := candidates[hits[0]]
		return CandidateSet{Exact: &exact}
	}
	if len(hits) > 1 {
		fuzzy := make([]FuzzyCandidate, 0, len(hits))
		for _, i := range hits {
			fuzzy = append(fuzzy, FuzzyCandidate{Candidate: candidates[i], Similarity: 1.0})
		}
		if len(fuzzy) > g.cfg.MaxCandidates {
			fuzzy = fuzzy[:g.cfg.MaxCandidates]
		}
		return CandidateSet{Fuzzy: fuzzy}
	}

	// Fuzzy stage
	var fuzzy []FuzzyCandidate
	for _, candidate := range candidates {
		sim := matching.Similarity(name, candidate.FullName())
		if sim > g.cfg.FuzzyFloor {
			fuzzy = append(fuzzy, FuzzyCandidate{Candidate: candidate, Similarity: sim})
		}
	}

	// Stable sort keeps the snapshot's input order for equal similarities.
	sort.SliceStable(fuzzy, func(i, j int) bool {
		return fuzzy[i].Similarity > fuzzy[j].Similarity
	})

	if len(fuzzy) > g.cfg.MaxCandidates {
		fuzzy = fuzzy[:g.cfg.MaxCandidates]
	}

	return CandidateSet{Fuzzy: fuzzy}
}
