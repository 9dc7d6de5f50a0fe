package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contact-crm/internal/db"
	"contact-crm/internal/resolver"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// MentionStatus is the reviewer lifecycle state of a persisted mention.
type MentionStatus string

const (
	MentionStatusPending   MentionStatus = "PENDING"
	MentionStatusConfirmed MentionStatus = "CONFIRMED"
	MentionStatusRejected  MentionStatus = "REJECTED"
)

// ValidStatusTransition reports whether a mention may move to the target
// status. Only PENDING records are reviewable; review decisions are final.
func ValidStatusTransition(from, to MentionStatus) bool {
	return from == MentionStatusPending &&
		(to == MentionStatusConfirmed || to == MentionStatusRejected)
}

// Mention is one persisted audit record per resolved mention per run.
// Records are append-only from the engine's side; only a reviewer action
// mutates status afterwards.
type Mention struct {
	ID                 uuid.UUID                   `json:"id"`
	OwnerID            uuid.UUID                   `json:"owner_id"`
	SourceContactID    uuid.UUID                   `json:"source_contact_id"`
	MentionedContactID *uuid.UUID                  `json:"mentioned_contact_id,omitempty"`
	Name               string                      `json:"name"`
	NormalizedName     string                      `json:"normalized_name"`
	Context            string                      `json:"context"`
	InferredDetails    map[string]string           `json:"inferred_details,omitempty"`
	MatchType          resolver.MatchType          `json:"match_type"`
	Confidence         float64                     `json:"confidence"`
	MatchedContact     *resolver.CandidateContact  `json:"matched_contact,omitempty"`
	MatchReasons       []string                    `json:"match_reasons"`
	AlternativeMatches []resolver.AlternativeMatch `json:"alternative_matches"`
	Status             MentionStatus               `json:"status"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// CreateMentionRequest holds parameters for persisting one resolved mention.
type CreateMentionRequest struct {
	OwnerID         uuid.UUID
	SourceContactID uuid.UUID
	Match           resolver.MentionMatch
}

// ListMentionsParams filters and paginates mention listings.
type ListMentionsParams struct {
	Status *MentionStatus
	Limit  int32
	Offset int32
}

// MentionRepository persists and reads mention audit records.
type MentionRepository struct {
	conn db.Conn
}

// NewMentionRepository creates a new mention repository
func NewMentionRepository(conn db.Conn) *MentionRepository {
	return &MentionRepository{conn: conn}
}

const mentionColumns = `
id, owner_id, source_contact_id, mentioned_contact_id,
name, normalized_name, context, inferred_details,
match_type, confidence, matched_contact, match_reasons, alternative_matches,
status, created_at, updated_at`

const createMentionSQL = `
INSERT INTO mentions (
	owner_id, source_contact_id, mentioned_contact_id,
	name, normalized_name, context, inferred_details,
	match_type, confidence, matched_contact, match_reasons, alternative_matches,
	status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING` + mentionColumns

// Create writes one append-only audit record with status PENDING. It does
// not deduplicate against prior runs for the same source contact and name;
// every resolution run leaves its own reviewable row.
func (r *MentionRepository) Create(ctx context.Context, req CreateMentionRequest) (*Mention, error) {
	match := req.Match

	var mentionedContactID pgtype.UUID
	if match.MatchedContact != nil {
		if match.MatchedContact.ID == req.SourceContactID {
			return nil, errors.New("mentioned contact must not be the source contact")
		}
		mentionedContactID = pgtype.UUID{Bytes: match.MatchedContact.ID, Valid: true}
	}

	inferredDetails, err := json.Marshal(match.InferredDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inferred details: %w", err)
	}
	var matchedContact []byte
	if match.MatchedContact != nil {
		if matchedContact, err = json.Marshal(match.MatchedContact); err != nil {
			return nil, fmt.Errorf("failed to encode matched contact: %w", err)
		}
	}
	matchReasons, err := json.Marshal(match.MatchReasons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match reasons: %w", err)
	}
	alternatives, err := json.Marshal(match.AlternativeMatches)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alternative matches: %w", err)
	}

	row := r.conn.QueryRow(ctx, createMentionSQL,
		pgtype.UUID{Bytes: req.OwnerID, Valid: true},
		pgtype.UUID{Bytes: req.SourceContactID, Valid: true},
		mentionedContactID,
		match.Name,
		match.NormalizedName,
		match.Context,
		inferredDetails,
		string(match.MatchType),
		match.Confidence,
		matchedContact,
		matchReasons,
		alternatives,
		string(MentionStatusPending),
	)

	mention, err := scanMention(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create mention: %w", err)
	}
	return mention, nil
}

const getMentionSQL = `
SELECT` + mentionColumns + `
FROM mentions
WHERE id = $1 AND owner_id = $2`

// GetByID retrieves a mention scoped to the owner.
func (r *MentionRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*Mention, error) {
	row := r.conn.QueryRow(ctx, getMentionSQL,
		pgtype.UUID{Bytes: id, Valid: true},
		pgtype.UUID{Bytes: ownerID, Valid: true},
	)
	mention, err := scanMention(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	return mention, nil
}

const listMentionsSQL = `
SELECT` + mentionColumns + `
FROM mentions
WHERE owner_id = $1
  AND ($2::text IS NULL OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

// ListByOwner retrieves the owner's mentions, newest first, optionally
// filtered by status.
func (r *MentionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params ListMentionsParams) ([]Mention, error) {
	var status pgtype.Text
	if params.Status != nil {
		status = pgtype.Text{String: string(*params.Status), Valid: true}
	}

	rows, err := r.conn.Query(ctx, listMentionsSQL,
		pgtype.UUID{Bytes: ownerID, Valid: true},
		status,
		params.Limit,
		params.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentions: %w", err)
	}
	defer rows.Close()

	return collectMentions(rows)
}

const listMentionsBySourceSQL = `
SELECT` + mentionColumns + `
FROM mentions
WHERE owner_id = $1 AND source_contact_id = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

// ListBySourceContact retrieves mentions produced while enriching one
// contact, newest first.
func (r *MentionRepository) ListBySourceContact(ctx context.Context, ownerID, sourceContactID uuid.UUID, limit, offset int32) ([]Mention, error) {
	rows, err := r.conn.Query(ctx, listMentionsBySourceSQL,
		pgtype.UUID{Bytes: ownerID, Valid: true},
		pgtype.UUID{Bytes: sourceContactID, Valid: true},
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentions for source contact: %w", err)
	}
	defer rows.Close()

	return collectMentions(rows)
}

const countMentionsSQL = `
SELECT COUNT(*) FROM mentions
WHERE owner_id = $1
  AND ($2::text IS NULL OR status = $2)`

// CountByOwner returns the number of the owner's mentions, optionally
// filtered by status.
func (r *MentionRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID, status *MentionStatus) (int64, error) {
	var statusText pgtype.Text
	if status != nil {
		statusText = pgtype.Text{String: string(*status), Valid: true}
	}

	var count int64
	err := r.conn.QueryRow(ctx, countMentionsSQL,
		pgtype.UUID{Bytes: ownerID, Valid: true},
		statusText,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count mentions: %w", err)
	}
	return count, nil
}

const updateMentionStatusSQL = `
UPDATE mentions
SET status = $3, updated_at = now()
WHERE id = $1 AND owner_id = $2 AND status = $4
RETURNING` + mentionColumns

// UpdateStatus transitions a PENDING mention to CONFIRMED or REJECTED.
// Returns db.ErrInvalidTransition when the record exists but has already
// been reviewed, db.ErrNotFound when it does not exist for the owner.
func (r *MentionRepository) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status MentionStatus) (*Mention, error) {
	if !ValidStatusTransition(MentionStatusPending, status) {
		return nil, db.ErrInvalidTransition
	}

	row := r.conn.QueryRow(ctx, updateMentionStatusSQL,
		pgtype.UUID{Bytes: id, Valid: true},
		pgtype.UUID{Bytes: ownerID, Valid: true},
		string(status),
		string(MentionStatusPending),
	)
	mention, err := scanMention(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish missing record from already-reviewed record.
			if _, getErr := r.GetByID(ctx, id, ownerID); getErr == nil {
				return nil, db.ErrInvalidTransition
			}
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	return mention, nil
}

// scanMention reads one mention row, decoding the JSON audit columns.
func scanMention(row pgx.Row) (*Mention, error) {
	var (
		mention            Mention
		id                 pgtype.UUID
		ownerID            pgtype.UUID
		sourceContactID    pgtype.UUID
		mentionedContactID pgtype.UUID
		inferredDetails    []byte
		matchType          string
		matchedContact     []byte
		matchReasons       []byte
		alternatives       []byte
		status             string
		createdAt          pgtype.Timestamptz
		updatedAt          pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &ownerID, &sourceContactID, &mentionedContactID,
		&mention.Name, &mention.NormalizedName, &mention.Context, &inferredDetails,
		&matchType, &mention.Confidence, &matchedContact, &matchReasons, &alternatives,
		&status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if id.Valid {
		mention.ID = uuid.UUID(id.Bytes)
	}
	if ownerID.Valid {
		mention.OwnerID = uuid.UUID(ownerID.Bytes)
	}
	if sourceContactID.Valid {
		mention.SourceContactID = uuid.UUID(sourceContactID.Bytes)
	}
	if mentionedContactID.Valid {
		contactID := uuid.UUID(mentionedContactID.Bytes)
		mention.MentionedContactID = &contactID
	}
	mention.MatchType = resolver.MatchType(matchType)
	mention.Status = MentionStatus(status)
	if createdAt.Valid {
		mention.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		mention.UpdatedAt = updatedAt.Time
	}

	if len(inferredDetails) > 0 {
		if err := json.Unmarshal(inferredDetails, &mention.InferredDetails); err != nil {
			return nil, fmt.Errorf("failed to decode inferred details: %w", err)
		}
	}
	if len(matchedContact) > 0 {
		var contact resolver.CandidateContact
		if err := json.Unmarshal(matchedContact, &contact); err != nil {
			return nil, fmt.Errorf("failed to decode matched contact: %w", err)
		}
		mention.MatchedContact = &contact
	}
	mention.MatchReasons = []string{}
	if len(matchReasons) > 0 {
		if err := json.Unmarshal(matchReasons, &mention.MatchReasons); err != nil {
			return nil, fmt.Errorf("failed to decode match reasons: %w", err)
		}
	}
	mention.AlternativeMatches = []resolver.AlternativeMatch{}
	if len(alternatives) > 0 {
		if err := json.Unmarshal(alternatives, &mention.AlternativeMatches); err != nil {
			return nil, fmt.Errorf("failed to decode alternative matches: %w", err)
		}
	}

	return &mention, nil
}

// collectMentions drains rows into mention values.
func collectMentions(rows pgx.Rows) ([]Mention, error) {
	mentions := make([]Mention, 0)
	for rows.Next() {
		mention, err := scanMention(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mention: %w", err)
		}
		mentions = append(mentions, *mention)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mentions: %w", err)
	}
	return mentions, nil
}
