package resolver

import (
	"fmt"
	"math"
	"strings"

	"contact-crm/internal/matching"
)

// ContextScorer combines a candidate's name similarity with corroborating
// signals from the mention's surrounding transcript text. Context
// corroboration is what disambiguates two contacts sharing a first name:
// equal raw name similarity, but only one of them has a company or email
// domain the transcript actually talks about.
type ContextScorer struct {
	cfg matching.Config
}

// NewContextScorer creates a context scorer with the given weights.
func NewContextScorer(cfg matching.Config) *ContextScorer {
	return &ContextScorer{cfg: cfg}
}

// Score produces the composite confidence and the ordered evidence list for
// one candidate against one mention's context text.
func (s *ContextScorer) Score(candidate CandidateContact, contextText string, nameSimilarity float64) ScoredCandidate {
	lowerContext := strings.ToLower(contextText)

	reasons := []string{
		fmt.Sprintf("Name: %d%% match", int(math.Round(nameSimilarity*100))),
	}

	companyHit := false
	if candidate.Company != nil {
		company := strings.ToLower(strings.TrimSpace(*candidate.Company))
		if company != "" && strings.Contains(lowerContext, company) {
			companyHit = true
			reasons = append(reasons, "Company: "+*candidate.Company)
		}
	}

	domainHit := false
	if candidate.PrimaryEmail != nil {
		domain := matching.EmailDomain(*candidate.PrimaryEmail)
		if domain != "" && strings.Contains(lowerContext, domain) {
			domainHit = true
			reasons = append(reasons, "Domain: @"+domain)
		}
	}

	return ScoredCandidate{
		Candidate: candidate,
		Score:     s.cfg.Score(nameSimilarity, companyHit, domainHit),
		Reasons:   reasons,
	}
}
