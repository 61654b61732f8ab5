package service

import (
	"context"
	"time"

	"prizewheel/events"
	"prizewheel/models"

	"github.com/stretchr/testify/mock"
)

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Participant, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByIdentity(ctx context.Context, identity string) (*models.Participant, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetClaim(ctx context.Context, identity string) (*models.Claim, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

// MockClaimStore is a mock implementation of ClaimStore
type MockClaimStore struct {
	mock.Mock
}

func (m *MockClaimStore) ClaimPrize(ctx context.Context, identity string, candidate models.Candidate, claimedAt time.Time) (*models.ClaimOutcome, error) {
	args := m.Called(ctx, identity, candidate, claimedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClaimOutcome), args.Error(1)
}

func (m *MockClaimStore) GetClaim(ctx context.Context, identity string) (*models.Claim, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

// MockSpinEventRepository is a mock implementation of SpinEventRepository
type MockSpinEventRepository struct {
	mock.Mock
}

func (m *MockSpinEventRepository) Append(ctx context.Context, event *models.SpinEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSpinEventRepository) ListByIdentity(ctx context.Context, identity string, limit int) ([]*models.SpinEvent, error) {
	args := m.Called(ctx, identity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SpinEvent), args.Error(1)
}

func (m *MockSpinEventRepository) TallyByPrize(ctx context.Context) ([]*models.PrizeTally, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PrizeTally), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockClaimMetrics is a mock implementation of ClaimMetrics
type MockClaimMetrics struct {
	mock.Mock
}

func (m *MockClaimMetrics) RecordClaim(outcome string, duration time.Duration) {
	m.Called(outcome, duration)
}

func (m *MockClaimMetrics) RecordAuditFailure() {
	m.Called()
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) ParticipantRepository() ParticipantRepository {
	args := m.Called()
	return args.Get(0).(ParticipantRepository)
}

func (m *MockUnitOfWork) SpinEventRepository() SpinEventRepository {
	args := m.Called()
	return args.Get(0).(SpinEventRepository)
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	args := m.Called()
	return args.Get(0).(EventPublisher)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

