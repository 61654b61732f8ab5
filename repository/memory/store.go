// Package memory holds an in-process participant store with the same claim
// semantics as the PostgreSQL repositories. It backs tests and STORE_BACKEND=memory.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"prizewheel/events"
	"prizewheel/models"
	"prizewheel/service"
)

// Store keeps participants and spin events behind a single mutex
type Store struct {
	mu           sync.Mutex
	participants map[string]*models.Participant
	spinEvents   []*models.SpinEvent
	nextEventID  int64
	now          func() time.Time

	// FailClaims makes ClaimPrize fail before touching state while it is positive,
	// decrementing it each call. Used to exercise storage failures.
	FailClaims int
	// FailClaimsAfterWrite makes ClaimPrize store the prize and then report an error,
	// the unknown-outcome case of a lost commit acknowledgement.
	FailClaimsAfterWrite int
	// FailAppends makes Append fail while it is positive
	FailAppends int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		participants: make(map[string]*models.Participant),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ErrInjected is returned by the failure switches of the store
var ErrInjected = errors.New("injected storage failure")

// SetFailures arms the failure switches under the store lock
func (s *Store) SetFailures(claims, claimsAfterWrite, appends int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailClaims = claims
	s.FailClaimsAfterWrite = claimsAfterWrite
	s.FailAppends = appends
}

// UpsertProfile creates the participant or merges the non-empty profile fields
func (s *Store) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.participants[profile.Identity]
	if !ok {
		p = &models.Participant{Identity: profile.Identity, RegisteredAt: now}
		s.participants[profile.Identity] = p
	}
	if profile.DisplayName != "" {
		p.DisplayName = profile.DisplayName
	}
	if profile.NationalID != "" {
		p.NationalID = profile.NationalID
	}
	if profile.Phone != "" {
		p.Phone = profile.Phone
	}
	p.UpdatedAt = now

	return copyParticipant(p), nil
}

// GetByIdentity returns a copy of the participant, nil if absent
func (s *Store) GetByIdentity(ctx context.Context, identity string) (*models.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[identity]
	if !ok {
		return nil, nil
	}
	return copyParticipant(p), nil
}

// GetClaim returns the stored claim, nil if none
func (s *Store) GetClaim(ctx context.Context, identity string) (*models.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[identity]
	if !ok {
		return nil, nil
	}
	return p.Claim(), nil
}

// ClaimPrize compares and sets the prize of identity under the store lock
func (s *Store) ClaimPrize(ctx context.Context, identity string, candidate models.Candidate, claimedAt time.Time) (*models.ClaimOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailClaims > 0 {
		s.FailClaims--
		return nil, ErrInjected
	}

	p, ok := s.participants[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrParticipantNotFound, identity)
	}

	if existing := p.Claim(); existing != nil {
		return &models.ClaimOutcome{Granted: false, Claim: *existing}, nil
	}

	prize := candidate.Prize
	index := candidate.Index
	at := claimedAt.UTC()
	p.Prize = &prize
	p.PrizeIndex = &index
	p.ClaimedAt = &at
	p.UpdatedAt = s.now()

	if s.FailClaimsAfterWrite > 0 {
		s.FailClaimsAfterWrite--
		return nil, ErrInjected
	}

	return &models.ClaimOutcome{Granted: true, Claim: *p.Claim()}, nil
}

// Append records a spin event
func (s *Store) Append(ctx context.Context, event *models.SpinEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAppends > 0 {
		s.FailAppends--
		return ErrInjected
	}
	if _, ok := s.participants[event.Identity]; !ok {
		return fmt.Errorf("%w: %s", service.ErrParticipantNotFound, event.Identity)
	}

	s.nextEventID++
	event.ID = s.nextEventID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	stored := *event
	s.spinEvents = append(s.spinEvents, &stored)
	return nil
}

// ListByIdentity returns the newest events of a participant first. A limit of
// zero or less returns every event.
func (s *Store) ListByIdentity(ctx context.Context, identity string, limit int) ([]*models.SpinEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.SpinEvent
	for i := len(s.spinEvents) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if s.spinEvents[i].Identity == identity {
			event := *s.spinEvents[i]
			result = append(result, &event)
		}
	}
	return result, nil
}

// TallyByPrize counts events per prize label, ordered by label
func (s *Store) TallyByPrize(ctx context.Context) ([]*models.PrizeTally, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	for _, event := range s.spinEvents {
		counts[event.Prize]++
	}

	tallies := make([]*models.PrizeTally, 0, len(counts))
	for prize, count := range counts {
		tallies = append(tallies, &models.PrizeTally{Prize: prize, Count: count})
	}
	sort.Slice(tallies, func(i, j int) bool { return tallies[i].Prize < tallies[j].Prize })
	return tallies, nil
}

func copyParticipant(p *models.Participant) *models.Participant {
	c := *p
	if p.Prize != nil {
		prize := *p.Prize
		c.Prize = &prize
	}
	if p.PrizeIndex != nil {
		index := *p.PrizeIndex
		c.PrizeIndex = &index
	}
	if p.ClaimedAt != nil {
		at := *p.ClaimedAt
		c.ClaimedAt = &at
	}
	return &c
}

// NewUnitOfWorkFactory creates units of work over store. Writes apply immediately;
// only event delivery is tied to Commit and Rollback.
func NewUnitOfWorkFactory(store *Store, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{store: store, eventBus: eventBus}
}

type unitOfWorkFactory struct {
	store    *Store
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		store:            f.store,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

type unitOfWork struct {
	store            *Store
	transactionalBus *events.TransactionalBus
	ctx              context.Context
	started          bool
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.started {
		return fmt.Errorf("transaction already started")
	}
	u.started = true
	u.ctx = ctx
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.started {
		return fmt.Errorf("no transaction to commit")
	}
	u.started = false
	return u.transactionalBus.Flush(u.ctx)
}

func (u *unitOfWork) Rollback() error {
	if !u.started {
		return nil
	}
	u.started = false
	u.transactionalBus.Discard()
	return nil
}

func (u *unitOfWork) ParticipantRepository() service.ParticipantRepository {
	if !u.started {
		panic("unit of work not started - call Begin() first")
	}
	return u.store
}

func (u *unitOfWork) SpinEventRepository() service.SpinEventRepository {
	if !u.started {
		panic("unit of work not started - call Begin() first")
	}
	return u.store
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
