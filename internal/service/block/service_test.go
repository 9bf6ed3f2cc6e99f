package block_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/cache"
	"github.com/emberdate/engine/internal/config"
	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/service/block"
)

func setupBlock(t *testing.T) (*block.Service, *gorm.DB, *miniredis.Miniredis) {
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

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, cache.NewRedisCache(cfg), logger, cfg)
	return block.NewService(appCtx), dbase, mr
}

func count[T any](t *testing.T, dbase *gorm.DB) int64 {
	t.Helper()
	var n int64
	var model T
	require.NoError(t, dbase.Model(&model).Count(&n).Error)
	return n
}

// TestBlockCascades: blocking destroys the pair's match and every like/pass
// edge in both directions, in one shot.
func TestBlockCascades(t *testing.T) {
	svc, dbase, _ := setupBlock(t)
	ctx := context.Background()

	require.NoError(t, dbase.Create(&db.Match{ID: "m1", User1ID: 1, User2ID: 2}).Error)
	require.NoError(t, dbase.Create(&db.Like{LikerID: 1, LikedID: 2}).Error)
	require.NoError(t, dbase.Create(&db.Like{LikerID: 2, LikedID: 1}).Error)
	require.NoError(t, dbase.Create(&db.Pass{PasserID: 2, PassedID: 1}).Error)

	// unrelated edges survive
	require.NoError(t, dbase.Create(&db.Like{LikerID: 3, LikedID: 1}).Error)
	require.NoError(t, dbase.Create(&db.Match{ID: "m2", User1ID: 2, User2ID: 3}).Error)

	require.NoError(t, svc.Block(ctx, 1, 2))

	assert.Equal(t, int64(1), count[db.Like](t, dbase))
	assert.Equal(t, int64(0), count[db.Pass](t, dbase))
	assert.Equal(t, int64(1), count[db.Match](t, dbase))

	blocked, err := svc.IsBlocked(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, blocked, "block is mutual regardless of direction")
}

func TestBlockIsIdempotent(t *testing.T) {
	svc, dbase, _ := setupBlock(t)
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, 1, 2))
	require.NoError(t, svc.Block(ctx, 1, 2))
	assert.Equal(t, int64(1), count[db.Block](t, dbase))
}

func TestBlockSelf(t *testing.T) {
	svc, _, _ := setupBlock(t)
	assert.ErrorIs(t, svc.Block(context.Background(), 1, 1), svcErr.ErrSelfTarget)
	assert.ErrorIs(t, svc.Unblock(context.Background(), 1, 1), svcErr.ErrSelfTarget)
}

// TestUnblockOnlyOwnEdge: unblocking removes the caller's edge; a block from
// the other side keeps the pair invisible.
func TestUnblockOnlyOwnEdge(t *testing.T) {
	svc, _, _ := setupBlock(t)
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, 1, 2))
	require.NoError(t, svc.Block(ctx, 2, 1))

	require.NoError(t, svc.Unblock(ctx, 1, 2))

	blocked, err := svc.IsBlocked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, blocked)

	require.NoError(t, svc.Unblock(ctx, 2, 1))
	blocked, err = svc.IsBlocked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, blocked)
}

// TestBlockDropsCachedAdmirerCounts: both sides' cached badges go stale the
// moment the pair turns invisible, so the cascade evicts them.
func TestBlockDropsCachedAdmirerCounts(t *testing.T) {
	svc, _, mr := setupBlock(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("admirers:count:1", "3"))
	require.NoError(t, mr.Set("admirers:count:2", "5"))
	require.NoError(t, mr.Set("admirers:count:9", "7"))

	require.NoError(t, svc.Block(ctx, 1, 2))

	assert.False(t, mr.Exists("admirers:count:1"))
	assert.False(t, mr.Exists("admirers:count:2"))
	assert.True(t, mr.Exists("admirers:count:9"), "unrelated badges survive")
}

func TestListBlockedBy(t *testing.T) {
	svc, _, _ := setupBlock(t)
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, 1, 2))
	require.NoError(t, svc.Block(ctx, 1, 3))
	require.NoError(t, svc.Block(ctx, 2, 1))

	ids, err := svc.ListBlockedBy(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}
