package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"prizewheel/database"
	"prizewheel/models"
	"prizewheel/service"
)

// ConditionalClaimStore claims prizes with a single conditional UPDATE.
// The row lock taken by the UPDATE serializes concurrent claims for one identity:
// a waiting UPDATE re-checks "prize IS NULL" against the committed winner and matches nothing.
type ConditionalClaimStore struct {
	db *database.DB
}

// NewConditionalClaimStore creates a claim store using the conditional update strategy
func NewConditionalClaimStore(db *database.DB) *ConditionalClaimStore {
	return &ConditionalClaimStore{db: db}
}

// ClaimPrize stores candidate unless a prize is already stored
func (s *ConditionalClaimStore) ClaimPrize(ctx context.Context, identity string, candidate models.Candidate, claimedAt time.Time) (*models.ClaimOutcome, error) {
	query := `
		UPDATE participants
		SET prize = $2, prize_index = $3, claimed_at = $4, updated_at = NOW()
		WHERE identity = $1 AND prize IS NULL
		RETURNING identity, prize, prize_index, claimed_at
	`

	var claim models.Claim
	err := s.db.QueryRow(ctx, query, identity, candidate.Prize, candidate.Index, claimedAt).Scan(
		&claim.Identity,
		&claim.Prize,
		&claim.PrizeIndex,
		&claim.ClaimedAt,
	)
	if err == nil {
		return &models.ClaimOutcome{Granted: true, Claim: claim}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim prize for %s: %w", identity, err)
	}

	// Nothing matched. Read the winner in a new statement so its snapshot includes the
	// claim that made the UPDATE skip the row.
	existing, err := getClaim(ctx, s.db, identity)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &models.ClaimOutcome{Granted: false, Claim: *existing}, nil
	}

	return nil, fmt.Errorf("%w: %s", service.ErrParticipantNotFound, identity)
}

// GetClaim returns the stored claim for identity
func (s *ConditionalClaimStore) GetClaim(ctx context.Context, identity string) (*models.Claim, error) {
	return getClaim(ctx, s.db, identity)
}

// TransactionalClaimStore claims prizes inside a SERIALIZABLE transaction that locks the
// participant row, replaying the transaction on serialization failures and deadlocks.
type TransactionalClaimStore struct {
	db         *database.DB
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewTransactionalClaimStore creates a claim store using the transactional strategy
func NewTransactionalClaimStore(db *database.DB, maxRetries int) *TransactionalClaimStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TransactionalClaimStore{
		db:         db,
		maxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 250 * time.Millisecond
			return b
		},
	}
}

// ClaimPrize stores candidate unless a prize is already stored
func (s *TransactionalClaimStore) ClaimPrize(ctx context.Context, identity string, candidate models.Candidate, claimedAt time.Time) (*models.ClaimOutcome, error) {
	var outcome *models.ClaimOutcome
	attempt := 0

	operation := func() error {
		attempt++
		var err error
		outcome, err = s.claimOnce(ctx, identity, candidate, claimedAt)
		if err == nil {
			return nil
		}
		if database.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"identity": identity,
			"attempt":  attempt,
			"wait":     wait,
			"error":    err,
		}).Warn("Claim transaction conflicted, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *TransactionalClaimStore) claimOnce(ctx context.Context, identity string, candidate models.Candidate, claimedAt time.Time) (*models.ClaimOutcome, error) {
	var outcome *models.ClaimOutcome

	err := s.db.WithSerializableTransaction(ctx, func(tx pgx.Tx) error {
		var (
			prize      *string
			prizeIndex *int
			storedAt   *time.Time
		)
		err := tx.QueryRow(ctx, `
			SELECT prize, prize_index, claimed_at
			FROM participants
			WHERE identity = $1
			FOR UPDATE
		`, identity).Scan(&prize, &prizeIndex, &storedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", service.ErrParticipantNotFound, identity)
		}
		if err != nil {
			return fmt.Errorf("failed to lock participant %s: %w", identity, err)
		}

		if prize != nil {
			claim := models.Claim{Identity: identity, Prize: *prize}
			if prizeIndex != nil {
				claim.PrizeIndex = *prizeIndex
			}
			if storedAt != nil {
				claim.ClaimedAt = *storedAt
			}
			outcome = &models.ClaimOutcome{Granted: false, Claim: claim}
			return nil
		}

		var claim models.Claim
		err = tx.QueryRow(ctx, `
			UPDATE participants
			SET prize = $2, prize_index = $3, claimed_at = $4, updated_at = NOW()
			WHERE identity = $1
			RETURNING identity, prize, prize_index, claimed_at
		`, identity, candidate.Prize, candidate.Index, claimedAt).Scan(
			&claim.Identity,
			&claim.Prize,
			&claim.PrizeIndex,
			&claim.ClaimedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to store prize for %s: %w", identity, err)
		}

		outcome = &models.ClaimOutcome{Granted: true, Claim: claim}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// GetClaim returns the stored claim for identity
func (s *TransactionalClaimStore) GetClaim(ctx context.Context, identity string) (*models.Claim, error) {
	return getClaim(ctx, s.db, identity)
}
