package repository

import (
	"context"
	"testing"
	"time"

	"prizewheel/models"
	"prizewheel/repository/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantRepository_UpsertProfile(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewParticipantRepository(testDB.DB)
	ctx := context.Background()

	t.Run("creates participant without prize", func(t *testing.T) {
		participant, err := repo.UpsertProfile(ctx, testutil.CreateTestProfile("ana@x.com"))
		require.NoError(t, err)

		assert.Equal(t, "ana@x.com", participant.Identity)
		assert.Equal(t, "Ana Lopez", participant.DisplayName)
		assert.False(t, participant.HasClaimed())
		assert.Nil(t, participant.ClaimedAt)
		assert.False(t, participant.RegisteredAt.IsZero())
	})

	t.Run("merges non-empty fields", func(t *testing.T) {
		_, err := repo.UpsertProfile(ctx, &models.Profile{Identity: "ana@x.com", Phone: "0911111111"})
		require.NoError(t, err)

		participant, err := repo.GetByIdentity(ctx, "ana@x.com")
		require.NoError(t, err)
		require.NotNil(t, participant)
		assert.Equal(t, "0911111111", participant.Phone)
		assert.Equal(t, "Ana Lopez", participant.DisplayName)
		assert.Equal(t, "0912345678", participant.NationalID)
	})

	t.Run("never touches a stored prize", func(t *testing.T) {
		store := NewConditionalClaimStore(testDB.DB)
		_, err := store.ClaimPrize(ctx, "ana@x.com", models.Candidate{Prize: "ELECTROMENOR", Index: 0}, time.Now())
		require.NoError(t, err)

		participant, err := repo.UpsertProfile(ctx, testutil.CreateTestProfile("ana@x.com"))
		require.NoError(t, err)
		require.True(t, participant.HasClaimed())
		assert.Equal(t, "ELECTROMENOR", *participant.Prize)
		assert.Equal(t, 0, *participant.PrizeIndex)
	})
}

func TestParticipantRepository_GetByIdentity_NotFound(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewParticipantRepository(testDB.DB)

	participant, err := repo.GetByIdentity(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Nil(t, participant)

	claim, err := repo.GetClaim(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Nil(t, claim)
}

func TestParticipantsTable_EnforcesPrizeInvariants(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewParticipantRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.UpsertProfile(ctx, testutil.CreateTestProfile("ana@x.com"))
	require.NoError(t, err)

	t.Run("prize without index is rejected", func(t *testing.T) {
		_, err := testDB.DB.Exec(ctx,
			`UPDATE participants SET prize = 'DETERGENTE', claimed_at = NOW() WHERE identity = 'ana@x.com'`)
		requireCheckViolation(t, err)
	})

	t.Run("index without prize is rejected", func(t *testing.T) {
		_, err := testDB.DB.Exec(ctx,
			`UPDATE participants SET prize_index = 1 WHERE identity = 'ana@x.com'`)
		requireCheckViolation(t, err)
	})

	t.Run("unnormalized identity is rejected", func(t *testing.T) {
		_, err := testDB.DB.Exec(ctx, `INSERT INTO participants (identity) VALUES (' Bob@X.com')`)
		requireCheckViolation(t, err)
	})

	t.Run("stored prize is write once", func(t *testing.T) {
		_, err := testDB.DB.Exec(ctx,
			`UPDATE participants SET prize = 'DETERGENTE', prize_index = 1, claimed_at = NOW() WHERE identity = 'ana@x.com'`)
		require.NoError(t, err)

		_, err = testDB.DB.Exec(ctx,
			`UPDATE participants SET prize = 'ELECTROMENOR', prize_index = 0 WHERE identity = 'ana@x.com'`)
		requireCheckViolation(t, err)

		_, err = testDB.DB.Exec(ctx,
			`UPDATE participants SET prize = NULL, prize_index = NULL, claimed_at = NULL WHERE identity = 'ana@x.com'`)
		requireCheckViolation(t, err)

		claim, err := repo.GetClaim(ctx, "ana@x.com")
		require.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, "DETERGENTE", claim.Prize)
	})
}

func requireCheckViolation(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23514", pgErr.Code)
}
