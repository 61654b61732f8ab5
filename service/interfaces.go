package service

import (
	"context"
	"time"

	"prizewheel/events"
	"prizewheel/models"
)

// ParticipantRepository defines the interface for participant data access
type ParticipantRepository interface {
	// UpsertProfile merge-writes the profile fields, creating the participant if needed.
	// It never modifies prize, prize index or claimed at.
	UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Participant, error)

	// GetByIdentity retrieves a participant by normalized identity, nil if absent
	GetByIdentity(ctx context.Context, identity string) (*models.Participant, error)

	// GetClaim returns the stored claim for identity, nil if none
	GetClaim(ctx context.Context, identity string) (*models.Claim, error)
}

// ClaimStore is the only write path for prizes
type ClaimStore interface {
	// ClaimPrize stores candidate for identity if and only if no prize is stored yet,
	// as one isolated operation. The outcome always carries the stored values.
	// Returns ErrParticipantNotFound when identity is not registered.
	ClaimPrize(ctx context.Context, identity string, candidate models.Candidate, claimedAt time.Time) (*models.ClaimOutcome, error)

	// GetClaim returns the stored claim for identity, nil if none
	GetClaim(ctx context.Context, identity string) (*models.Claim, error)
}

// AuditLog records granted claims
type AuditLog interface {
	// Append records a spin event and sets its ID
	Append(ctx context.Context, event *models.SpinEvent) error
}

// SpinEventRepository defines the interface for spin event data access
type SpinEventRepository interface {
	AuditLog

	// ListByIdentity returns the most recent events of a participant
	ListByIdentity(ctx context.Context, identity string, limit int) ([]*models.SpinEvent, error)

	// TallyByPrize counts events per prize label
	TallyByPrize(ctx context.Context) ([]*models.PrizeTally, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// RandomSource draws integers uniformly from [0, n)
type RandomSource interface {
	IntN(n int) (int, error)
}

// ClaimMetrics records claim protocol outcomes
type ClaimMetrics interface {
	RecordClaim(outcome string, duration time.Duration)
	RecordAuditFailure()
}

// ParticipantService defines the operations exposed to registration and spin flows
type ParticipantService interface {
	// RegisterParticipant validates and stores a participant profile
	RegisterParticipant(ctx context.Context, req RegistrationRequest) (*models.Participant, error)

	// GetParticipant returns the participant record, nil if absent
	GetParticipant(ctx context.Context, identity string) (*models.Participant, error)

	// GetAssignedPrize returns the stored claim, nil if none
	GetAssignedPrize(ctx context.Context, identity string) (*models.Claim, error)

	// DrawAndClaim selects a candidate and claims it, returning the stored prize
	DrawAndClaim(ctx context.Context, identity string) (*models.ClaimResult, error)
}

// ReportService defines reporting over the audit log
type ReportService interface {
	// PrizeReport tallies granted claims per label against the configured weights
	PrizeReport(ctx context.Context) (*PrizeReport, error)

	// ParticipantEvents returns the spin events of a participant
	ParticipantEvents(ctx context.Context, identity string, limit int) ([]*models.SpinEvent, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	ParticipantRepository() ParticipantRepository
	SpinEventRepository() SpinEventRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
