package matching

import "contact-crm/internal/config"

// Config defines weights and thresholds for mention resolution scoring.
// The three weights sum to 1.0; the fuzzy floor is the minimum name
// similarity for a contact to be considered a candidate at all.
type Config struct {
	NameWeight    float64
	CompanyWeight float64
	DomainWeight  float64
	FuzzyFloor    float64
	MaxCandidates int
}

// DefaultConfig mirrors the production scoring defaults.
var DefaultConfig = Config{
	NameWeight:    0.5,
	CompanyWeight: 0.3,
	DomainWeight:  0.2,
	FuzzyFloor:    0.3,
	MaxCandidates: 10,
}

// FromResolverConfig builds a scoring config from application configuration.
func FromResolverConfig(rc config.ResolverConfig) Config {
	return Config{
		NameWeight:    rc.NameWeight,
		CompanyWeight: rc.CompanyWeight,
		DomainWeight:  rc.DomainWeight,
		FuzzyFloor:    rc.FuzzyFloor,
		MaxCandidates: rc.MaxCandidates,
	}
}

// Score calculates the weighted confidence for a candidate. Company and
// domain corroboration are binary signals; the clamp guards against weight
// drift if the configuration is tuned past 1.0.
func (c Config) Score(nameSimilarity float64, companyHit, domainHit bool) float64 {
	score := nameSimilarity * c.NameWeight
	if companyHit {
		score += c.CompanyWeight
	}
	if domainHit {
		score += c.DomainWeight
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
