package resolver

import (
	"testing"

	"contact-crm/internal/matching"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func stringPtr(s string) *string {
	return &s
}

func candidate(first string, last *string) CandidateContact {
	return CandidateContact{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
	}
}

func TestCandidateGenerator_ExactFullName(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Scott", stringPtr("Lee")),
		candidate("Alice", stringPtr("Wong")),
	}

	set := gen.Generate("scott lee", candidates)

	if assert.NotNil(t, set.Exact) {
		assert.Equal(t, candidates[0].ID, set.Exact.ID)
	}
	assert.Empty(t, set.Fuzzy)
}

func TestCandidateGenerator_ExactFirstNameOnly(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Alice", stringPtr("Wong")),
		candidate("Scott", stringPtr("Lee")),
	}

	set := gen.Generate("scott", candidates)

	if assert.NotNil(t, set.Exact) {
		assert.Equal(t, candidates[1].ID, set.Exact.ID)
	}
}

func TestCandidateGenerator_ExactCaseInsensitive(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("SCOTT", stringPtr("LEE")),
	}

	set := gen.Generate("scott lee", candidates)
	assert.NotNil(t, set.Exact)
}

func TestCandidateGenerator_ExactNoLastName(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Madonna", nil),
	}

	set := gen.Generate("madonna", candidates)
	assert.NotNil(t, set.Exact)
}

func TestCandidateGenerator_AmbiguousExactBecomesFuzzy(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Scott", stringPtr("Lee")),
		candidate("Scott", stringPtr("Kim")),
		candidate("Alice", stringPtr("Wong")),
	}

	// "scott" hits both Scotts equally; the name alone cannot pick one, so
	// both come back as fuzzy candidates at similarity 1.0 for context
	// scoring to rank.
	set := gen.Generate("scott", candidates)

	assert.Nil(t, set.Exact)
	if assert.Len(t, set.Fuzzy, 2) {
		assert.Equal(t, candidates[0].ID, set.Fuzzy[0].Candidate.ID)
		assert.Equal(t, candidates[1].ID, set.Fuzzy[1].Candidate.ID)
		assert.InDelta(t, 1.0, set.Fuzzy[0].Similarity, 0.0001)
		assert.InDelta(t, 1.0, set.Fuzzy[1].Similarity, 0.0001)
	}
}

func TestCandidateGenerator_ExactShortCircuitsFuzzy(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Scot", stringPtr("Lee")), // near miss, high similarity
		candidate("Scott", stringPtr("Lee")),
	}

	set := gen.Generate("scott lee", candidates)

	assert.NotNil(t, set.Exact)
	assert.Empty(t, set.Fuzzy, "fuzzy stage must not run when an exact match exists")
}

func TestCandidateGenerator_FuzzyAboveFloor(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Scot", stringPtr("Lee")),
		candidate("Xavier", stringPtr("Quintero-Brown")),
	}

	set := gen.Generate("scott lee", candidates)

	assert.Nil(t, set.Exact)
	if assert.Len(t, set.Fuzzy, 1) {
		assert.Equal(t, candidates[0].ID, set.Fuzzy[0].Candidate.ID)
		assert.Greater(t, set.Fuzzy[0].Similarity, matching.DefaultConfig.FuzzyFloor)
	}
}

func TestCandidateGenerator_FuzzyOrderedBySimilarity(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Scotty", stringPtr("Leeds")),
		candidate("Scot", stringPtr("Lee")),
	}

	set := gen.Generate("scott lee", candidates)

	assert.Nil(t, set.Exact)
	if assert.Len(t, set.Fuzzy, 2) {
		assert.GreaterOrEqual(t, set.Fuzzy[0].Similarity, set.Fuzzy[1].Similarity)
		assert.Equal(t, candidates[1].ID, set.Fuzzy[0].Candidate.ID)
	}
}

func TestCandidateGenerator_FuzzyCapped(t *testing.T) {
	cfg := matching.DefaultConfig
	cfg.MaxCandidates = 3
	gen := NewCandidateGenerator(cfg)

	var candidates []CandidateContact
	for i := 0; i < 8; i++ {
		candidates = append(candidates, candidate("Scott", stringPtr("Lem")))
	}

	set := gen.Generate("scott lee", candidates)

	assert.Nil(t, set.Exact)
	assert.Len(t, set.Fuzzy, 3)
}

func TestCandidateGenerator_FuzzyTiesKeepInputOrder(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Scott", stringPtr("Lem")),
		candidate("Scott", stringPtr("Led")),
	}

	set := gen.Generate("scott lee", candidates)

	if assert.Len(t, set.Fuzzy, 2) {
		assert.InDelta(t, set.Fuzzy[0].Similarity, set.Fuzzy[1].Similarity, 0.0001)
		assert.Equal(t, candidates[0].ID, set.Fuzzy[0].Candidate.ID)
		assert.Equal(t, candidates[1].ID, set.Fuzzy[1].Candidate.ID)
	}
}

func TestCandidateGenerator_NothingAboveFloor(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)
	candidates := []CandidateContact{
		candidate("Xavier", stringPtr("Quintero-Brown")),
		candidate("Bartholomew", stringPtr("Fitzgerald")),
	}

	set := gen.Generate("ng", candidates)

	assert.Nil(t, set.Exact)
	assert.Empty(t, set.Fuzzy)
}

func TestCandidateGenerator_EmptyCandidateSet(t *testing.T) {
	gen := NewCandidateGenerator(matching.DefaultConfig)

	set := gen.Generate("scott", nil)

	assert.Nil(t, set.Exact)
	assert.Empty(t, set.Fuzzy)
}
