package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"prizewheel/models"
	"prizewheel/repository/memory"
	"prizewheel/repository/testutil"
	"prizewheel/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingStore holds ClaimPrize until release is closed
type blockingStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) ClaimPrize(ctx context.Context, identity string, candidate models.Candidate, claimedAt time.Time) (*models.ClaimOutcome, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.Store.ClaimPrize(ctx, identity, candidate, claimedAt)
}

func newRegistry(t *testing.T, store service.ClaimStore, audit service.AuditLog) *service.SessionRegistry {
	t.Helper()
	coordinator := service.NewClaimCoordinator(store, audit, nil, nil)
	engine := service.NewSelectionEngine(service.NewSeededSource(1, 1))
	return service.NewSessionRegistry(coordinator, engine, models.DefaultPrizeTable, time.Minute)
}

func registerAna(t *testing.T, store *memory.Store) {
	t.Helper()
	_, err := store.UpsertProfile(context.Background(), testutil.CreateTestProfile("ana@x.com"))
	require.NoError(t, err)
}

func TestSession_OpenUnclaimedThenSpin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registerAna(t, store)
	registry := newRegistry(t, store, store)

	session, err := registry.Open(ctx, "ana@x.com")
	require.NoError(t, err)
	snapshot := session.Snapshot()
	assert.Equal(t, service.StateReadyToSpin, snapshot.State)
	assert.True(t, snapshot.CanSpin)

	result, err := session.Spin(ctx)
	require.NoError(t, err)
	assert.True(t, result.Granted)

	snapshot = session.Snapshot()
	assert.Equal(t, service.StateResolved, snapshot.State)
	assert.False(t, snapshot.CanSpin)
	require.NotNil(t, snapshot.Result)
	assert.Equal(t, result.Prize, snapshot.Result.Prize)

	_, err = session.Spin(ctx)
	assert.ErrorIs(t, err, service.ErrSpinDisabled)
}

func TestSession_OpenAlreadyClaimed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registerAna(t, store)
	_, err := store.ClaimPrize(ctx, "ana@x.com", models.Candidate{Prize: "ELECTROMENOR", Index: 0}, time.Now())
	require.NoError(t, err)

	registry := newRegistry(t, store, store)
	session, err := registry.Open(ctx, "ana@x.com")
	require.NoError(t, err)

	snapshot := session.Snapshot()
	assert.Equal(t, service.StateAlreadyClaimed, snapshot.State)
	assert.False(t, snapshot.CanSpin)
	require.NotNil(t, snapshot.Result)
	assert.Equal(t, "ELECTROMENOR", snapshot.Result.Prize)
	assert.False(t, snapshot.Result.Granted)

	_, err = session.Spin(ctx)
	assert.ErrorIs(t, err, service.ErrSpinDisabled)
}

func TestSession_RejectsSpinWhileInFlight(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registerAna(t, store)
	blocking := &blockingStore{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
	registry := newRegistry(t, blocking, store)

	session, err := registry.Open(ctx, "ana@x.com")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := session.Spin(ctx)
		done <- err
	}()

	<-blocking.entered
	assert.Equal(t, service.StateClaiming, session.Snapshot().State)

	_, err = session.Spin(ctx)
	assert.ErrorIs(t, err, service.ErrSpinInProgress)

	close(blocking.release)
	require.NoError(t, <-done)
	assert.Equal(t, service.StateResolved, session.Snapshot().State)

	spinEvents, err := store.ListByIdentity(ctx, "ana@x.com", 0)
	require.NoError(t, err)
	assert.Len(t, spinEvents, 1)
}

func TestSession_StorageFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registerAna(t, store)
	registry := newRegistry(t, store, store)

	session, err := registry.Open(ctx, "ana@x.com")
	require.NoError(t, err)

	store.SetFailures(1, 0, 0)
	_, err = session.Spin(ctx)
	require.Error(t, err)
	assert.True(t, service.IsStorageError(err))

	snapshot := session.Snapshot()
	assert.Equal(t, service.StateRetryableFailure, snapshot.State)
	assert.True(t, snapshot.CanSpin)
	assert.NotEmpty(t, snapshot.LastError)

	result, err := session.Spin(ctx)
	require.NoError(t, err)
	assert.True(t, result.Granted)
	assert.Equal(t, service.StateResolved, session.Snapshot().State)
}

func TestSession_UnknownOutcomeResolvesToCommittedPrize(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registerAna(t, store)
	registry := newRegistry(t, store, store)

	session, err := registry.Open(ctx, "ana@x.com")
	require.NoError(t, err)

	// The write lands but the caller only sees an error
	store.SetFailures(0, 1, 0)
	_, err = session.Spin(ctx)
	require.Error(t, err)

	committed, err := store.GetClaim(ctx, "ana@x.com")
	require.NoError(t, err)
	require.NotNil(t, committed)

	result, err := session.Spin(ctx)
	require.NoError(t, err)
	assert.False(t, result.Granted)
	assert.Equal(t, committed.Prize, result.Prize)
	assert.Equal(t, committed.PrizeIndex, result.PrizeIndex)
	assert.Equal(t, service.StateResolved, session.Snapshot().State)
}

func TestSession_OpenFailureRechecksBeforeDrawing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registerAna(t, store)
	registry := newRegistry(t, store, store)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	session, err := registry.Open(canceled, "ana@x.com")
	require.Error(t, err)
	assert.Equal(t, service.StateRetryableFailure, session.Snapshot().State)

	found, err := registry.Get(session.ID().String())
	require.NoError(t, err)
	assert.Same(t, session, found)

	result, err := found.Spin(ctx)
	require.NoError(t, err)
	assert.True(t, result.Granted)
}

func TestSessionRegistry_GetUnknown(t *testing.T) {
	registry := newRegistry(t, memory.NewStore(), nil)

	_, err := registry.Get("not-a-uuid")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	_, err = registry.Get("3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestSessionRegistry_CleanUpInactiveSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registerAna(t, store)

	coordinator := service.NewClaimCoordinator(store, store, nil, nil)
	registry := service.NewSessionRegistry(coordinator, service.NewSelectionEngine(nil), models.DefaultPrizeTable, 10*time.Millisecond)

	_, err := registry.Open(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Len())

	assert.Equal(t, 0, service.NewSessionRegistry(coordinator, nil, nil, time.Hour).CleanUpInactiveSessions())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, registry.CleanUpInactiveSessions())
	assert.Equal(t, 0, registry.Len())
}
