package service

import (
	"context"
	"fmt"

	"contact-crm/internal/config"
	"contact-crm/internal/logger"
	"contact-crm/internal/matching"
	"contact-crm/internal/repository"
	"contact-crm/internal/resolver"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type candidateLister interface {
	ListCandidates(ctx context.Context, ownerID, sourceContactID uuid.UUID) ([]resolver.CandidateContact, error)
	ContactExists(ctx context.Context, contactID, ownerID uuid.UUID) (bool, error)
}

type mentionStore interface {
	Create(ctx context.Context, req repository.CreateMentionRequest) (*repository.Mention, error)
}

// ResolvedMention is one per-mention entry in the batch response: the
// resolution plus the persisted audit id and per-mention failure flags.
type ResolvedMention struct {
	resolver.MentionMatch
	MentionID *uuid.UUID `json:"mention_id"`
	// ResolutionFailed marks entries degraded to NONE because scoring this
	// mention failed unexpectedly. Sibling mentions are unaffected.
	ResolutionFailed bool `json:"resolution_failed,omitempty"`
	// PersistenceWarning marks entries whose audit record could not be
	// written; the resolution itself is still returned.
	PersistenceWarning bool `json:"persistence_warning,omitempty"`
}

// MentionService orchestrates batch mention resolution: one candidate
// snapshot per batch, independent per-mention resolution fanned out over a
// bounded worker group, then per-mention audit persistence.
type MentionService struct {
	contacts       candidateLister
	mentions       mentionStore
	resolver       *resolver.MatchResolver
	maxConcurrency int
}

// NewMentionService creates a mention service from application configuration.
func NewMentionService(contacts candidateLister, mentions mentionStore, cfg config.ResolverConfig) *MentionService {
	return &MentionService{
		contacts:       contacts,
		mentions:       mentions,
		resolver:       resolver.NewMatchResolver(matching.FromResolverConfig(cfg)),
		maxConcurrency: cfg.MaxConcurrency,
	}
}

// ErrSourceContactNotFound is returned when the source contact does not
// belong to the acting owner.
var ErrSourceContactNotFound = fmt.Errorf("source contact not found")

// ResolveMentions resolves a batch of extracted mentions against the owner's
// contacts and persists one audit record per mention. The returned slice
// always mirrors the input length and order.
//
// Failure policy: an unexpected failure resolving one mention degrades only
// that entry to NONE with ResolutionFailed set; a failed audit write leaves
// MentionID nil with PersistenceWarning set and never discards the computed
// resolution. Only candidate-snapshot errors and caller cancellation fail
// the batch.
func (s *MentionService) ResolveMentions(ctx context.Context, ownerID, sourceContactID uuid.UUID, mentions []resolver.MentionInput) ([]ResolvedMention, error) {
	exists, err := s.contacts.ContactExists(ctx, sourceContactID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify source contact: %w", err)
	}
	if !exists {
		return nil, ErrSourceContactNotFound
	}

	// One immutable snapshot shared read-only by every mention resolution.
	candidates, err := s.contacts.ListCandidates(ctx, ownerID, sourceContactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate contacts: %w", err)
	}

	results := make([]ResolvedMention, len(mentions))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, mention := range mentions {
		i, mention := i, mention
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			match, failed := s.resolveOne(mention, candidates)
			// Indexed writes keep the caller's input order regardless of
			// which resolutions finish first.
			results[i] = ResolvedMention{MentionMatch: match, ResolutionFailed: failed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.persistResults(ctx, ownerID, sourceContactID, results)

	return results, nil
}

// resolveOne runs a single resolution, degrading to a NONE match when the
// engine fails unexpectedly so one bad mention cannot sink the batch.
func (s *MentionService) resolveOne(mention resolver.MentionInput, candidates []resolver.CandidateContact) (match resolver.MentionMatch, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("mention", mention.NormalizedName).
				Msg("mention resolution failed")
			match = noneMatch(mention)
			failed = true
		}
	}()

	return s.resolver.Resolve(mention, candidates), false
}

// persistResults writes one audit record per resolved mention. Writes are
// independent: a failed write flags its own entry and moves on.
func (s *MentionService) persistResults(ctx context.Context, ownerID, sourceContactID uuid.UUID, results []ResolvedMention) {
	for i := range results {
		if ctx.Err() != nil {
			// Caller gone; rows already committed stay committed.
			for j := i; j < len(results); j++ {
				results[j].PersistenceWarning = true
			}
			return
		}

		mention, err := s.mentions.Create(ctx, repository.CreateMentionRequest{
			OwnerID:         ownerID,
			SourceContactID: sourceContactID,
			Match:           results[i].MentionMatch,
		})
		if err != nil {
			logger.Warn().
				Err(err).
				Str("mention", results[i].NormalizedName).
				Str("source_contact_id", sourceContactID.String()).
				Msg("failed to persist mention audit record")
			results[i].PersistenceWarning = true
			continue
		}

		id := mention.ID
		results[i].MentionID = &id
	}
}

// noneMatch builds the terminal NONE outcome for a mention.
func noneMatch(mention resolver.MentionInput) resolver.MentionMatch {
	return resolver.MentionMatch{
		Name:               mention.Name,
		NormalizedName:     mention.NormalizedName,
		Context:            mention.Context,
		InferredDetails:    mention.InferredDetails,
		MatchType:          resolver.MatchTypeNone,
		MatchReasons:       []string{},
		AlternativeMatches: []resolver.AlternativeMatch{},
	}
}
