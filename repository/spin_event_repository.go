package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"prizewheel/database"
	"prizewheel/models"
)

// SpinEventRepository implements the SpinEventRepository interface
type SpinEventRepository struct {
	q queryable
}

// NewSpinEventRepository creates a new spin event repository
func NewSpinEventRepository(db *database.DB) *SpinEventRepository {
	return &SpinEventRepository{q: db.Pool}
}

// newSpinEventRepositoryWithTx creates a new spin event repository with a transaction
func newSpinEventRepositoryWithTx(tx queryable) *SpinEventRepository {
	return &SpinEventRepository{q: tx}
}

// Append records a spin event
func (r *SpinEventRepository) Append(ctx context.Context, event *models.SpinEvent) error {
	query := `
		INSERT INTO spin_events (identity, prize, prize_index, occurred_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, occurred_at
	`

	err := r.q.QueryRow(ctx, query,
		event.Identity,
		event.Prize,
		event.PrizeIndex,
		event.OccurredAt,
	).Scan(&event.ID, &event.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to append spin event for %s: %w", event.Identity, err)
	}

	return nil
}

// ListByIdentity returns the newest events of a participant first. A limit of
// zero or less returns every event.
func (r *SpinEventRepository) ListByIdentity(ctx context.Context, identity string, limit int) ([]*models.SpinEvent, error) {
	// LIMIT NULL is no limit
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	query := `
		SELECT id, identity, prize, prize_index, occurred_at
		FROM spin_events
		WHERE identity = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, identity, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list spin events for %s: %w", identity, err)
	}

	events, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.SpinEvent])
	if err != nil {
		return nil, fmt.Errorf("failed to scan spin events: %w", err)
	}

	return events, nil
}

// TallyByPrize counts recorded events per prize label
func (r *SpinEventRepository) TallyByPrize(ctx context.Context) ([]*models.PrizeTally, error) {
	query := `
		SELECT prize, COUNT(*) AS count
		FROM spin_events
		GROUP BY prize
		ORDER BY prize
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to tally spin events: %w", err)
	}

	tallies, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.PrizeTally])
	if err != nil {
		return nil, fmt.Errorf("failed to scan prize tallies: %w", err)
	}

	return tallies, nil
}
