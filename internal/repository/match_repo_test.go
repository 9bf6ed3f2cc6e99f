package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberdate/engine/internal/db"
	"github.com/emberdate/engine/internal/repository"
)

func TestCanonicalPair(t *testing.T) {
	a, b := repository.CanonicalPair(7, 3)
	assert.Equal(t, uint64(3), a)
	assert.Equal(t, uint64(7), b)

	a, b = repository.CanonicalPair(3, 7)
	assert.Equal(t, uint64(3), a)
	assert.Equal(t, uint64(7), b)
}

// TestCreateIfAbsentExactlyOnce simulates the race where both sides' swipes
// reach the match insert: however many times it runs, only the first call
// creates, and every call agrees on the single stored row.
func TestCreateIfAbsentExactlyOnce(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	first, created, err := repo.CreateIfAbsent(ctx, 7, 3)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(3), first.User1ID)
	assert.Equal(t, uint64(7), first.User2ID)

	// the opposite direction hits the same canonical row
	second, created, err := repo.CreateIfAbsent(ctx, 3, 7)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteForPairEitherOrder(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	_, _, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)

	deleted, err := repo.DeleteForPair(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteForPair(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	_, _, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)
	_, _, err = repo.CreateIfAbsent(ctx, 3, 1)
	require.NoError(t, err)
	_, _, err = repo.CreateIfAbsent(ctx, 2, 3)
	require.NoError(t, err)

	matches, err := repo.ListForUser(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
