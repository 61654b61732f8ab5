package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"prizewheel/models"
)

// SessionState is a step of the spin flow
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateCheckingClaim    SessionState = "checking_claim"
	StateAlreadyClaimed   SessionState = "already_claimed"
	StateReadyToSpin      SessionState = "ready_to_spin"
	StateSpinning         SessionState = "spinning"
	StateClaiming         SessionState = "claiming"
	StateResolved         SessionState = "resolved"
	StateRetryableFailure SessionState = "retryable_failure"
)

// SessionSnapshot is a consistent copy of a session's state
type SessionSnapshot struct {
	ID           uuid.UUID
	Identity     string
	State        SessionState
	CanSpin      bool
	Result       *models.ClaimResult
	LastError    string
	LastActivity time.Time
}

// Session sequences one participant's visit: check for an existing claim, spin
// once, show the stored prize. At most one spin is in flight per session.
type Session struct {
	mu           sync.Mutex
	id           uuid.UUID
	identity     string
	state        SessionState
	result       *models.ClaimResult
	lastErr      error
	lastActivity time.Time
	// set after a failure whose write may have committed
	recheck bool

	coordinator *ClaimCoordinator
	engine      *SelectionEngine
	table       models.PrizeTable
	now         func() time.Time
}

// NewSession creates an idle session for identity
func NewSession(identity string, coordinator *ClaimCoordinator, engine *SelectionEngine, table models.PrizeTable) *Session {
	return &Session{
		id:           uuid.New(),
		identity:     models.NormalizeIdentity(identity),
		state:        StateIdle,
		lastActivity: time.Now(),
		coordinator:  coordinator,
		engine:       engine,
		table:        table,
		now:          time.Now,
	}
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Open checks whether the participant already holds a prize. A stored prize
// ends the session in AlreadyClaimed, otherwise it becomes ready to spin.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil
	}
	s.state = StateCheckingClaim
	s.touch()
	s.mu.Unlock()

	claim, err := s.coordinator.GetClaim(ctx, s.identity)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err != nil {
		s.fail(err)
		return err
	}
	if claim != nil {
		s.state = StateAlreadyClaimed
		s.result = resultFromClaim(claim)
		return nil
	}
	s.state = StateReadyToSpin
	return nil
}

// Spin draws a fresh candidate and claims it. The returned result carries the
// stored prize, which is not necessarily the drawn candidate.
func (s *Session) Spin(ctx context.Context) (*models.ClaimResult, error) {
	s.mu.Lock()
	switch s.state {
	case StateSpinning, StateClaiming:
		s.mu.Unlock()
		return nil, ErrSpinInProgress
	case StateReadyToSpin, StateRetryableFailure:
	default:
		s.mu.Unlock()
		return nil, ErrSpinDisabled
	}
	s.state = StateSpinning
	recheck := s.recheck
	s.touch()
	s.mu.Unlock()

	// An earlier failure may have committed; resolve to that prize instead of drawing again
	if recheck {
		claim, err := s.coordinator.GetClaim(ctx, s.identity)
		if err != nil {
			return nil, s.finishWithError(err)
		}
		s.mu.Lock()
		s.recheck = false
		s.mu.Unlock()
		if claim != nil {
			result := resultFromClaim(claim)
			s.resolve(result)
			log.WithFields(log.Fields{
				"session":  s.id,
				"identity": s.identity,
				"prize":    result.Prize,
			}).Info("Earlier claim attempt had committed, resolving to stored prize")
			return result, nil
		}
	}

	candidate, err := s.engine.Select(s.table)
	if err != nil {
		return nil, s.finishWithError(err)
	}

	s.mu.Lock()
	s.state = StateClaiming
	s.touch()
	s.mu.Unlock()

	result, err := s.coordinator.Claim(ctx, s.identity, candidate)
	if err != nil {
		return nil, s.finishWithError(err)
	}

	s.resolve(result)
	return result, nil
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := SessionSnapshot{
		ID:           s.id,
		Identity:     s.identity,
		State:        s.state,
		CanSpin:      s.state == StateReadyToSpin || s.state == StateRetryableFailure,
		LastActivity: s.lastActivity,
	}
	if s.result != nil {
		result := *s.result
		snapshot.Result = &result
	}
	if s.lastErr != nil {
		snapshot.LastError = s.lastErr.Error()
	}
	return snapshot
}

func (s *Session) resolve(result *models.ClaimResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateResolved
	s.result = result
	s.lastErr = nil
	s.touch()
}

// finishWithError moves the session out of an in-flight state and returns err
func (s *Session) finishWithError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.fail(err)
	return err
}

// fail must be called with mu held
func (s *Session) fail(err error) {
	s.lastErr = err
	if IsStorageError(err) {
		s.state = StateRetryableFailure
		s.recheck = true
		return
	}
	s.state = StateReadyToSpin
}

// touch must be called with mu held
func (s *Session) touch() {
	s.lastActivity = s.now()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSpinning || s.state == StateClaiming || s.state == StateCheckingClaim {
		return false
	}
	return s.lastActivity.Before(cutoff)
}

func resultFromClaim(claim *models.Claim) *models.ClaimResult {
	return &models.ClaimResult{
		Granted:    false,
		Prize:      claim.Prize,
		PrizeIndex: claim.PrizeIndex,
		ClaimedAt:  claim.ClaimedAt,
	}
}

// SessionRegistry keeps sessions addressable by id and expires idle ones
type SessionRegistry struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*Session
	ttl         time.Duration
	coordinator *ClaimCoordinator
	engine      *SelectionEngine
	table       models.PrizeTable
	now         func() time.Time
}

// NewSessionRegistry creates a registry whose sessions expire after ttl of inactivity
func NewSessionRegistry(coordinator *ClaimCoordinator, engine *SelectionEngine, table models.PrizeTable, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[uuid.UUID]*Session),
		ttl:         ttl,
		coordinator: coordinator,
		engine:      engine,
		table:       table,
		now:         time.Now,
	}
}

// Open creates and opens a session for identity. The session is registered even
// when the claim check fails so that the caller can spin it again.
func (r *SessionRegistry) Open(ctx context.Context, identity string) (*Session, error) {
	session := NewSession(identity, r.coordinator, r.engine, r.table)
	session.now = r.now
	session.lastActivity = r.now()

	r.mu.Lock()
	r.sessions[session.id] = session
	r.mu.Unlock()

	err := session.Open(ctx)
	return session, err
}

// Get returns the session with the given id
func (r *SessionRegistry) Get(id string) (*Session, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CleanUpInactiveSessions removes sessions idle for longer than the ttl and returns how many were removed
func (r *SessionRegistry) CleanUpInactiveSessions() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.idleSince(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		log.WithFields(log.Fields{
			"removed":   removed,
			"remaining": len(r.sessions),
		}).Debug("Removed inactive sessions")
	}
	return removed
}

// Run sweeps inactive sessions until ctx is done
func (r *SessionRegistry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.CleanUpInactiveSessions()
		}
	}
}
