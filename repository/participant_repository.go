package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"prizewheel/database"
	"prizewheel/models"
)

const participantColumns = `
	identity,
	COALESCE(display_name, ''),
	COALESCE(national_id, ''),
	COALESCE(phone, ''),
	prize,
	prize_index,
	registered_at,
	updated_at,
	claimed_at`

// ParticipantRepository implements the ParticipantRepository interface
type ParticipantRepository struct {
	q queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

// newParticipantRepositoryWithTx creates a new participant repository with a transaction
func newParticipantRepositoryWithTx(tx queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

// UpsertProfile creates the participant or merges the non-empty profile fields into the existing row.
// The prize columns are not part of the statement.
func (r *ParticipantRepository) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Participant, error) {
	query := `
		INSERT INTO participants (identity, display_name, national_id, phone)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (identity) DO UPDATE SET
			display_name = COALESCE(EXCLUDED.display_name, participants.display_name),
			national_id  = COALESCE(EXCLUDED.national_id, participants.national_id),
			phone        = COALESCE(EXCLUDED.phone, participants.phone),
			updated_at   = NOW()
		RETURNING` + participantColumns

	participant, err := scanParticipant(r.q.QueryRow(ctx, query,
		profile.Identity,
		profile.DisplayName,
		profile.NationalID,
		profile.Phone,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert participant %s: %w", profile.Identity, err)
	}

	return participant, nil
}

// GetByIdentity retrieves a participant by identity
func (r *ParticipantRepository) GetByIdentity(ctx context.Context, identity string) (*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE identity = $1`

	participant, err := scanParticipant(r.q.QueryRow(ctx, query, identity))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s: %w", identity, err)
	}

	return participant, nil
}

// GetClaim returns the stored claim of a participant, nil when unregistered or unclaimed
func (r *ParticipantRepository) GetClaim(ctx context.Context, identity string) (*models.Claim, error) {
	return getClaim(ctx, r.q, identity)
}

func getClaim(ctx context.Context, q queryable, identity string) (*models.Claim, error) {
	query := `
		SELECT identity, prize, prize_index, claimed_at
		FROM participants
		WHERE identity = $1 AND prize IS NOT NULL
	`

	var claim models.Claim
	err := q.QueryRow(ctx, query, identity).Scan(
		&claim.Identity,
		&claim.Prize,
		&claim.PrizeIndex,
		&claim.ClaimedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim for %s: %w", identity, err)
	}

	return &claim, nil
}

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.Identity,
		&p.DisplayName,
		&p.NationalID,
		&p.Phone,
		&p.Prize,
		&p.PrizeIndex,
		&p.RegisteredAt,
		&p.UpdatedAt,
		&p.ClaimedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
