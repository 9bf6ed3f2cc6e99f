package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/repository"
)

func TestDeductCreditsNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewCreditRepository(dbase)

	require.NoError(t, repo.Grant(ctx, 1, 2, 0))

	require.NoError(t, repo.DeductCredits(ctx, 1, 1))
	require.NoError(t, repo.DeductCredits(ctx, 1, 1))

	// third spend fails cleanly, balance stays at zero
	err := repo.DeductCredits(ctx, 1, 1)
	assert.ErrorIs(t, err, svcErr.ErrInsufficientCredits)

	balance, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.PaidCredits)
}

func TestDeductCreditsWithoutBalanceRow(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewCreditRepository(setupTestDB(t))

	err := repo.DeductCredits(ctx, 42, 1)
	assert.ErrorIs(t, err, svcErr.ErrInsufficientCredits)
}

func TestUseBonusLike(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewCreditRepository(dbase)

	require.NoError(t, repo.Grant(ctx, 1, 0, 1))

	require.NoError(t, repo.UseBonusLike(ctx, 1))
	assert.ErrorIs(t, repo.UseBonusLike(ctx, 1), svcErr.ErrInsufficientCredits)

	balance, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.BonusLikes)
}

func TestGrantAccumulates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewCreditRepository(setupTestDB(t))

	require.NoError(t, repo.Grant(ctx, 1, 3, 1))
	require.NoError(t, repo.Grant(ctx, 1, 2, 1))

	balance, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance.PaidCredits)
	assert.Equal(t, int64(2), balance.BonusLikes)
}

func TestUseDailyFreeLikeStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewCreditRepository(dbase)

	const day = "2026-09-01"
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.UseDailyFreeLike(ctx, 1, day, 3))
	}
	assert.ErrorIs(t, repo.UseDailyFreeLike(ctx, 1, day, 3), svcErr.ErrDailyLimitReached)

	used, err := repo.DailyUsed(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 3, used)
}

// TestDailyQuotaIsDateScoped: a new calendar day starts from zero without
// any reset job, because the counter row is keyed by date.
func TestDailyQuotaIsDateScoped(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewCreditRepository(dbase)

	require.NoError(t, repo.UseDailyFreeLike(ctx, 1, "2026-09-01", 1))
	assert.ErrorIs(t, repo.UseDailyFreeLike(ctx, 1, "2026-09-01", 1), svcErr.ErrDailyLimitReached)

	require.NoError(t, repo.UseDailyFreeLike(ctx, 1, "2026-09-02", 1))

	var rows []db.DailyLikeUsage
	require.NoError(t, dbase.Find(&rows).Error)
	assert.Len(t, rows, 2)
}

// TestDailyQuotaDoesNotTouchBonusLikes: exhausting the free quota leaves
// bonus likes spendable for a superlike.
func TestDailyQuotaDoesNotTouchBonusLikes(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewCreditRepository(dbase)

	require.NoError(t, repo.Grant(ctx, 1, 0, 1))
	require.NoError(t, repo.UseDailyFreeLike(ctx, 1, "2026-09-01", 1))
	assert.ErrorIs(t, repo.UseDailyFreeLike(ctx, 1, "2026-09-01", 1), svcErr.ErrDailyLimitReached)

	require.NoError(t, repo.UseBonusLike(ctx, 1))
}
