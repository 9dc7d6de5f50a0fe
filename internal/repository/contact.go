package repository

import (
	"context"
	"fmt"

	"contact-crm/internal/db"
	"contact-crm/internal/resolver"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ContactRepository reads the candidate contact projections the resolution
// engine scores against.
type ContactRepository struct {
	conn db.Conn
}

// NewContactRepository creates a new contact repository
func NewContactRepository(conn db.Conn) *ContactRepository {
	return &ContactRepository{conn: conn}
}

const listCandidatesSQL = `
SELECT id, first_name, last_name, title, company, primary_email, enrichment_score
FROM contacts
WHERE owner_id = $1
  AND id <> $2
  AND deleted_at IS NULL
ORDER BY enrichment_score DESC, created_at ASC`

// ListCandidates fetches the owner's contacts excluding the source contact,
// ordered by enrichment score. The result is the immutable snapshot every
// mention in a batch resolves against; the ordering also defines the stable
// input order the resolver's tie-break preserves.
func (r *ContactRepository) ListCandidates(ctx context.Context, ownerID, sourceContactID uuid.UUID) ([]resolver.CandidateContact, error) {
	rows, err := r.conn.Query(ctx, listCandidatesSQL,
		pgtype.UUID{Bytes: ownerID, Valid: true},
		pgtype.UUID{Bytes: sourceContactID, Valid: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate contacts: %w", err)
	}
	defer rows.Close()

	var candidates []resolver.CandidateContact
	for rows.Next() {
		var (
			id           pgtype.UUID
			firstName    string
			lastName     pgtype.Text
			title        pgtype.Text
			company      pgtype.Text
			primaryEmail pgtype.Text
			score        pgtype.Float8
		)
		if err := rows.Scan(&id, &firstName, &lastName, &title, &company, &primaryEmail, &score); err != nil {
			return nil, fmt.Errorf("failed to scan candidate contact: %w", err)
		}

		candidate := resolver.CandidateContact{FirstName: firstName}
		if id.Valid {
			candidate.ID = uuid.UUID(id.Bytes)
		}
		if lastName.Valid {
			candidate.LastName = &lastName.String
		}
		if title.Valid {
			candidate.Title = &title.String
		}
		if company.Valid {
			candidate.Company = &company.String
		}
		if primaryEmail.Valid {
			candidate.PrimaryEmail = &primaryEmail.String
		}
		if score.Valid {
			candidate.EnrichmentScore = score.Float64
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidate contacts: %w", err)
	}

	return candidates, nil
}

const contactExistsSQL = `
SELECT EXISTS (
	SELECT 1 FROM contacts
	WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
)`

// ContactExists reports whether a contact belongs to the owner.
func (r *ContactRepository) ContactExists(ctx context.Context, contactID, ownerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, contactExistsSQL,
		pgtype.UUID{Bytes: contactID, Valid: true},
		pgtype.UUID{Bytes: ownerID, Valid: true},
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check contact ownership: %w", err)
	}
	return exists, nil
}
