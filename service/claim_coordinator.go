package service

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"prizewheel/events"
	"prizewheel/models"
)

// Claim outcomes reported to ClaimMetrics
const (
	OutcomeGranted        = "granted"
	OutcomeAlreadyClaimed = "already_claimed"
	OutcomeNotFound       = "not_found"
	OutcomeInvalid        = "invalid"
	OutcomeStorageError   = "storage_error"
)

// ClaimCoordinator runs the exactly-once prize assignment. It holds no shared
// state; the store decides the winner.
type ClaimCoordinator struct {
	store     ClaimStore
	audit     AuditLog
	publisher EventPublisher
	metrics   ClaimMetrics
	now       func() time.Time
}

// NewClaimCoordinator creates a coordinator. audit, publisher and metrics may be nil.
func NewClaimCoordinator(store ClaimStore, audit AuditLog, publisher EventPublisher, metrics ClaimMetrics) *ClaimCoordinator {
	return &ClaimCoordinator{
		store:     store,
		audit:     audit,
		publisher: publisher,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetClaim returns the stored claim for identity, nil if none
func (c *ClaimCoordinator) GetClaim(ctx context.Context, identity string) (*models.Claim, error) {
	claim, err := c.store.GetClaim(ctx, models.NormalizeIdentity(identity))
	if err != nil {
		return nil, newStorageError("get claim", err)
	}
	return claim, nil
}

// Claim stores candidate for identity unless a prize is already stored, and
// returns whatever prize the store holds afterwards.
func (c *ClaimCoordinator) Claim(ctx context.Context, identity string, candidate models.Candidate) (*models.ClaimResult, error) {
	start := time.Now()
	identity = models.NormalizeIdentity(identity)

	if strings.TrimSpace(candidate.Prize) == "" {
		c.record(OutcomeInvalid, start)
		return nil, &ValidationError{Field: "prize", Message: "candidate prize must not be empty"}
	}
	if candidate.Index < 0 {
		c.record(OutcomeInvalid, start)
		return nil, &ValidationError{Field: "prize_index", Message: "candidate index must not be negative"}
	}

	outcome, err := c.store.ClaimPrize(ctx, identity, candidate, c.now())
	if errors.Is(err, ErrParticipantNotFound) {
		c.record(OutcomeNotFound, start)
		return nil, err
	}
	if err != nil {
		c.record(OutcomeStorageError, start)
		log.WithFields(log.Fields{
			"identity":  identity,
			"candidate": candidate.Prize,
			"error":     err,
		}).Error("Claim failed at the store")
		return nil, newStorageError("claim prize", err)
	}

	result := models.NewClaimResult(outcome)
	if !outcome.Granted {
		c.record(OutcomeAlreadyClaimed, start)
		log.WithFields(log.Fields{
			"identity": identity,
			"prize":    result.Prize,
		}).Info("Participant already holds a prize")
		return result, nil
	}

	c.record(OutcomeGranted, start)
	log.WithFields(log.Fields{
		"identity":   identity,
		"prize":      result.Prize,
		"prizeIndex": result.PrizeIndex,
	}).Info("Prize claimed")

	c.appendAudit(ctx, outcome.Claim)

	if c.publisher != nil {
		c.publisher.Publish(events.PrizeClaimedEvent{
			Identity:   outcome.Claim.Identity,
			Prize:      outcome.Claim.Prize,
			PrizeIndex: outcome.Claim.PrizeIndex,
			ClaimedAt:  outcome.Claim.ClaimedAt,
		})
	}

	return result, nil
}

// appendAudit records the grant. A failure leaves the claim in place.
func (c *ClaimCoordinator) appendAudit(ctx context.Context, claim models.Claim) {
	if c.audit == nil {
		return
	}

	event := &models.SpinEvent{
		Identity:   claim.Identity,
		Prize:      claim.Prize,
		PrizeIndex: claim.PrizeIndex,
		OccurredAt: claim.ClaimedAt,
	}
	if err := c.audit.Append(ctx, event); err != nil {
		if c.metrics != nil {
			c.metrics.RecordAuditFailure()
		}
		log.WithFields(log.Fields{
			"identity": claim.Identity,
			"prize":    claim.Prize,
			"error":    err,
		}).Warn("Failed to append spin event, claim stands")
	}
}

func (c *ClaimCoordinator) record(outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordClaim(outcome, time.Since(start))
	}
}
