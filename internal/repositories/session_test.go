package repositories_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/identity"
	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/repositories"
	"github.com/politia/politia/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func testSession(id string, legislature, number int) models.Session {
	return models.Session{
		ID:            id,
		Date:          time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Chamber:       "C",
		Legislature:   legislature,
		SessionNumber: number,
	}
}

func TestSessionRepository_roundtrip(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	repo := repositories.NewSessionRepository(dbs, testhelpers.NewLogger(io.Discard))
	ctx := context.Background()

	got, err := repo.Get(ctx, "session_19_347")
	require.NoError(t, err)
	require.Nil(t, got)

	session := testSession("session_19_347", 19, 347)
	session.SourceReference = "data/raw/camera/19__347.json"
	require.NoError(t, repo.Create(ctx, &session))

	got, err = repo.Get(ctx, "session_19_347")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "C", got.Chamber)
	require.Equal(t, 19, got.Legislature)
	require.Equal(t, 347, got.SessionNumber)
	require.Equal(t, "data/raw/camera/19__347.json", got.SourceReference)
	require.True(t, got.Date.Equal(session.Date))
}

func TestSessionRepository_BackfillSourceReference(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	repo := repositories.NewSessionRepository(dbs, testhelpers.NewLogger(io.Discard))
	ctx := context.Background()

	session := testSession("session_19_347", 19, 347)
	require.NoError(t, repo.Create(ctx, &session))

	require.NoError(t, repo.BackfillSourceReference(ctx, "session_19_347", "19__347.json"))
	got, err := repo.Get(ctx, "session_19_347")
	require.NoError(t, err)
	require.Equal(t, "19__347.json", got.SourceReference)

	// Backfill never overwrites an existing reference.
	require.NoError(t, repo.BackfillSourceReference(ctx, "session_19_347", "other.json"))
	got, err = repo.Get(ctx, "session_19_347")
	require.NoError(t, err)
	require.Equal(t, "19__347.json", got.SourceReference)
}

func TestSessionRepository_MaxSessionNumber(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	repo := repositories.NewSessionRepository(dbs, testhelpers.NewLogger(io.Discard))
	ctx := context.Background()

	_, ok, err := repo.MaxSessionNumber(ctx, 19)
	require.NoError(t, err)
	require.False(t, ok)

	for _, number := range []int{347, 349, 348} {
		session := testSession("", 19, number)
		session.ID = sessionID(t, 19, number)
		require.NoError(t, repo.Create(ctx, &session))
	}
	other := testSession("session_18_500", 18, 500)
	require.NoError(t, repo.Create(ctx, &other))

	watermark, ok, err := repo.MaxSessionNumber(ctx, 19)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 349, watermark)

	numbers, err := repo.SessionNumbers(ctx, 19)
	require.NoError(t, err)
	require.Equal(t, map[int]bool{347: true, 348: true, 349: true}, numbers)
}

func TestSessionRepository_withTxRollback(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	repo := repositories.NewSessionRepository(dbs, testhelpers.NewLogger(io.Discard))
	ctx := context.Background()

	sentinel := errors.NewSentinel("boom")
	err := dbs.InWriteTx(ctx, func(tx *sqlx.Tx) error {
		txRepo := repo.WithTx(tx)
		session := testSession("session_19_347", 19, 347)
		if err := txRepo.Create(ctx, &session); err != nil {
			return err
		}
		// The transaction sees its own uncommitted write.
		got, err := txRepo.Get(ctx, "session_19_347")
		require.NoError(t, err)
		require.NotNil(t, got)
		return sentinel
	})
	require.True(t, errors.Is(err, sentinel))

	// Rolled back: nothing was persisted.
	got, err := repo.Get(ctx, "session_19_347")
	require.NoError(t, err)
	require.Nil(t, got)
}

func sessionID(t *testing.T, legislature, number int) string {
	t.Helper()
	id, err := identity.SessionKey(legislature, number)
	require.NoError(t, err)
	return id
}
