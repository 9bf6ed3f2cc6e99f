package admirers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/cache"
	"github.com/emberdate/engine/internal/config"
	"github.com/emberdate/engine/internal/db"
	"github.com/emberdate/engine/internal/service/admirers"
)

func setupAdmirers(t *testing.T) (*admirers.Service, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(db.Models...))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Engine.AdmirerPageSize = 3

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, cache.NewRedisCache(cfg), logger, cfg)
	return admirers.NewService(appCtx), dbase, mr
}

func seedAdmirer(t *testing.T, dbase *gorm.DB, liker, liked uint64, superlike bool, at time.Time) {
	t.Helper()
	require.NoError(t, dbase.Create(&db.Like{
		LikerID: liker, LikedID: liked, Superlike: superlike, CreatedAt: at,
	}).Error)
}

func TestListNewestFirstWithCursor(t *testing.T) {
	svc, dbase, _ := setupAdmirers(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := uint64(2); i <= 6; i++ {
		seedAdmirer(t, dbase, i, 1, i == 4, base.Add(-time.Duration(i)*time.Minute))
	}

	page, err := svc.List(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, page.Admirers, 3)
	assert.Equal(t, uint64(2), page.Admirers[0].LikerID)
	assert.Equal(t, uint64(4), page.Admirers[2].LikerID)
	assert.True(t, page.Admirers[2].Superlike)
	require.NotNil(t, page.NextToken)

	page, err = svc.List(ctx, 1, page.NextToken)
	require.NoError(t, err)
	require.Len(t, page.Admirers, 2)
	assert.Equal(t, uint64(5), page.Admirers[0].LikerID)
	assert.Equal(t, uint64(6), page.Admirers[1].LikerID)
	assert.Nil(t, page.NextToken)
}

// TestListExclusions: an admirer the recipient already passed on or blocked
// is not actionable and stays hidden.
func TestListExclusions(t *testing.T) {
	svc, dbase, _ := setupAdmirers(t)
	ctx := context.Background()

	base := time.Now().UTC()
	seedAdmirer(t, dbase, 2, 1, false, base.Add(-1*time.Minute))
	seedAdmirer(t, dbase, 3, 1, false, base.Add(-2*time.Minute))
	seedAdmirer(t, dbase, 4, 1, false, base.Add(-3*time.Minute))

	require.NoError(t, dbase.Create(&db.Pass{PasserID: 1, PassedID: 3}).Error)
	require.NoError(t, dbase.Create(&db.Block{BlockerID: 4, BlockedID: 1}).Error)

	page, err := svc.List(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, page.Admirers, 1)
	assert.Equal(t, uint64(2), page.Admirers[0].LikerID)
}

func TestCountFallsBackToDBAndCaches(t *testing.T) {
	svc, dbase, mr := setupAdmirers(t)
	ctx := context.Background()

	base := time.Now().UTC()
	seedAdmirer(t, dbase, 2, 1, false, base)
	seedAdmirer(t, dbase, 3, 1, false, base)

	n, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cached, err := mr.Get("admirers:count:1")
	require.NoError(t, err)
	assert.Equal(t, "2", cached)
}

func TestCountPrefersCache(t *testing.T) {
	svc, dbase, mr := setupAdmirers(t)
	ctx := context.Background()

	seedAdmirer(t, dbase, 2, 1, false, time.Now().UTC())
	require.NoError(t, mr.Set("admirers:count:1", strconv.Itoa(7)))

	n, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n, "warm cache wins over the DB")
}

func TestCountExpiredCacheRecomputes(t *testing.T) {
	svc, dbase, mr := setupAdmirers(t)
	ctx := context.Background()

	seedAdmirer(t, dbase, 2, 1, false, time.Now().UTC())
	require.NoError(t, mr.Set("admirers:count:1", "99"))
	mr.SetTTL("admirers:count:1", time.Minute)
	mr.FastForward(2 * time.Minute)

	n, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
