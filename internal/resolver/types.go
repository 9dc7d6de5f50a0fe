// Package resolver implements the mention resolution engine: candidate
// generation, context scoring, and match selection for free-text references
// to people extracted from enrichment conversations.
package resolver

import (
	"strings"

	"github.com/google/uuid"
)

// MatchType classifies how a mention was resolved.
type MatchType string

const (
	MatchTypeExact MatchType = "EXACT"
	MatchTypeFuzzy MatchType = "FUZZY"
	MatchTypeNone  MatchType = "NONE"
)

// CandidateContact is the read-only contact projection the engine scores
// against. The source contact is excluded before candidates reach the engine.
type CandidateContact struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        *string   `json:"last_name,omitempty"`
	Title           *string   `json:"title,omitempty"`
	Company         *string   `json:"company,omitempty"`
	PrimaryEmail    *string   `json:"primary_email,omitempty"`
	EnrichmentScore float64   `json:"enrichment_score"`
}

// FullName returns "first last", or just the first name when no last name
// is recorded.
func (c CandidateContact) FullName() string {
	if c.LastName == nil || *c.LastName == "" {
		return c.FirstName
	}
	return strings.TrimSpace(c.FirstName + " " + *c.LastName)
}

// MentionInput is one extracted reference to a person.
type MentionInput struct {
	Name            string            `json:"name"`
	NormalizedName  string            `json:"normalized_name"`
	Context         string            `json:"context"`
	InferredDetails map[string]string `json:"inferred_details,omitempty"`
}

// ScoredCandidate pairs a candidate with its composite confidence and the
// human-readable evidence behind it.
type ScoredCandidate struct {
	Candidate CandidateContact
	Score     float64
	Reasons   []string
}

// AlternativeMatch is a non-selected candidate surfaced for reviewer display.
type AlternativeMatch struct {
	Candidate  CandidateContact `json:"candidate"`
	Confidence float64          `json:"confidence"`
	Reasons    []string         `json:"reasons"`
}

// MentionMatch is the engine's output for one mention.
type MentionMatch struct {
	Name               string             `json:"name"`
	NormalizedName     string             `json:"normalized_name"`
	Context            string             `json:"context"`
	InferredDetails    map[string]string  `json:"inferred_details,omitempty"`
	MatchType          MatchType          `json:"match_type"`
	Confidence         float64            `json:"confidence"`
	MatchedContact     *CandidateContact  `json:"matched_contact,omitempty"`
	MatchReasons       []string           `json:"match_reasons"`
	AlternativeMatches []AlternativeMatch `json:"alternative_matches"`
}
