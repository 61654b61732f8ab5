package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"prizewheel/events"
	"prizewheel/models"
)

// participantService implements the ParticipantService interface
type participantService struct {
	uowFactory  UnitOfWorkFactory
	reader      ParticipantRepository
	coordinator *ClaimCoordinator
	engine      *SelectionEngine
	table       models.PrizeTable
}

// NewParticipantService creates a new participant service
func NewParticipantService(
	uowFactory UnitOfWorkFactory,
	reader ParticipantRepository,
	coordinator *ClaimCoordinator,
	engine *SelectionEngine,
	table models.PrizeTable,
) ParticipantService {
	return &participantService{
		uowFactory:  uowFactory,
		reader:      reader,
		coordinator: coordinator,
		engine:      engine,
		table:       table,
	}
}

// RegisterParticipant validates the request and merges it into the participant record
func (s *participantService) RegisterParticipant(ctx context.Context, req RegistrationRequest) (*models.Participant, error) {
	req = req.Normalize()
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, newStorageError("begin registration", err)
	}
	defer uow.Rollback()

	participant, err := uow.ParticipantRepository().UpsertProfile(ctx, req.Profile())
	if err != nil {
		return nil, newStorageError("upsert profile", err)
	}

	uow.EventBus().Publish(events.ParticipantRegisteredEvent{
		Identity:     participant.Identity,
		DisplayName:  participant.DisplayName,
		RegisteredAt: participant.RegisteredAt,
	})

	if err := uow.Commit(); err != nil {
		return nil, newStorageError("commit registration", err)
	}

	log.WithFields(log.Fields{
		"identity":   participant.Identity,
		"hasClaimed": participant.HasClaimed(),
	}).Info("Participant registered")

	return participant, nil
}

// GetParticipant returns the participant record, nil if absent
func (s *participantService) GetParticipant(ctx context.Context, identity string) (*models.Participant, error) {
	participant, err := s.reader.GetByIdentity(ctx, models.NormalizeIdentity(identity))
	if err != nil {
		return nil, newStorageError("get participant", err)
	}
	return participant, nil
}

// GetAssignedPrize returns the stored claim, nil if none
func (s *participantService) GetAssignedPrize(ctx context.Context, identity string) (*models.Claim, error) {
	return s.coordinator.GetClaim(ctx, identity)
}

// DrawAndClaim returns the existing claim without drawing, or draws a fresh candidate and claims it
func (s *participantService) DrawAndClaim(ctx context.Context, identity string) (*models.ClaimResult, error) {
	identity = models.NormalizeIdentity(identity)

	existing, err := s.coordinator.GetClaim(ctx, identity)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &models.ClaimResult{
			Granted:    false,
			Prize:      existing.Prize,
			PrizeIndex: existing.PrizeIndex,
			ClaimedAt:  existing.ClaimedAt,
		}, nil
	}

	candidate, err := s.engine.Select(s.table)
	if err != nil {
		return nil, err
	}

	return s.coordinator.Claim(ctx, identity, candidate)
}
