package resolver

import (
	"sort"

	"contact-crm/internal/matching"
)

// MatchResolver orchestrates candidate generation and context scoring for a
// single mention. Resolution is a pure computation over an immutable
// candidate snapshot; "no match" is a NONE outcome, never an error.
type MatchResolver struct {
	generator *CandidateGenerator
	scorer    *ContextScorer
}

// NewMatchResolver creates a resolver with the given scoring configuration.
func NewMatchResolver(cfg matching.Config) *MatchResolver {
	return &MatchResolver{
		generator: NewCandidateGenerator(cfg),
		scorer:    NewContextScorer(cfg),
	}
}

// Resolve decides which candidate, if any, the mention refers to.
//
// A unique exact name hit resolves with confidence 1.0 and no alternatives;
// the context is still scored so the audit trail shows the corroborating
// evidence. Fuzzy candidates, including name-ambiguous ties the generator
// demotes from the exact stage, are scored against the context and ranked by
// composite confidence, with the runner-ups kept as alternatives for
// reviewer display. An empty candidate set resolves to NONE.
func (r *MatchResolver) Resolve(mention MentionInput, candidates []CandidateContact) MentionMatch {
	match := MentionMatch{
		Name:               mention.Name,
		NormalizedName:     mention.NormalizedName,
		Context:            mention.Context,
		InferredDetails:    mention.InferredDetails,
		MatchType:          MatchTypeNone,
		MatchReasons:       []string{},
		AlternativeMatches: []AlternativeMatch{},
	}

	set := r.generator.Generate(mention.NormalizedName, candidates)

	if set.Exact != nil {
		scored := r.scorer.Score(*set.Exact, mention.Context, 1.0)
		match.MatchType = MatchTypeExact
		match.Confidence = 1.0
		match.MatchedContact = set.Exact
		match.MatchReasons = scored.Reasons
		return match
	}

	if len(set.Fuzzy) == 0 {
		return match
	}

	scored := make([]ScoredCandidate, len(set.Fuzzy))
	for i, fc := range set.Fuzzy {
		scored[i] = r.scorer.Score(fc.Candidate, mention.Context, fc.Similarity)
	}

	// Stable sort: ties keep the similarity ordering from the generator,
	// which makes repeated runs on the same snapshot deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	best := scored[0]
	match.MatchType = MatchTypeFuzzy
	match.Confidence = best.Score
	match.MatchedContact = &best.Candidate
	match.MatchReasons = best.Reasons

	for _, alt := range scored[1:] {
		match.AlternativeMatches = append(match.AlternativeMatches, AlternativeMatch{
			Candidate:  alt.Candidate,
			Confidence: alt.Score,
			Reasons:    alt.Reasons,
		})
	}

	return match
}
