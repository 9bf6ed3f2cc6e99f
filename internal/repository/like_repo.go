package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/engine/internal/db"
	"github.com/emberdate/engine/internal/utils/pagination"
)

// LikeRepository provides data access for the directed Like edge.
// Construct it around a transaction handle to run its writes inside the
// swipe transaction.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Insert records a like edge with a conflict-safe insert.
//
// Behavior:
//   - New (liker_id, liked_id) pair → row inserted, returns true.
//   - Pair already present → no mutation, returns false. The caller decides
//     whether "already present" is a conflict (a repeated swipe) or a success
//     (a retried transaction).
func (r *LikeRepository) Insert(ctx context.Context, like db.Like) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetForUpdate reads a like edge while holding a row lock on it, so that of
// two concurrent mutual-like transactions exactly one observes the other's
// row. This is the engine's sole serialization point. Returns nil when the
// edge does not exist.
//
// SQLite has no row locks; its single-writer model already serializes the two
// transactions, so the locking clause is skipped there.
func (r *LikeRepository) GetForUpdate(ctx context.Context, likerID, likedID uint64) (*db.Like, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var likes []db.Like
	err := query.
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Limit(1).
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return nil, nil
	}
	return &likes[0], nil
}

// Get returns the like edge for the given direction, or nil when absent.
func (r *LikeRepository) Get(ctx context.Context, likerID, likedID uint64) (*db.Like, error) {
	var likes []db.Like
	err := r.db.WithContext(ctx).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Limit(1).
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return nil, nil
	}
	return &likes[0], nil
}

// DeleteBetween purges both directions' like rows for a pair. Called inside
// the match transaction (a match supersedes the underlying likes) and by the
// block cascade.
func (r *LikeRepository) DeleteBetween(ctx context.Context, a, b uint64) error {
	return r.db.WithContext(ctx).
		Where("(liker_id = ? AND liked_id = ?) OR (liker_id = ? AND liked_id = ?)", a, b, b, a).
		Delete(&db.Like{}).Error
}

// GetAdmirers returns users who liked the given recipient and can still
// become a match.
//
// Behavior:
//   - Only incoming like edges are considered.
//   - Excludes likers the recipient already passed.
//   - Excludes pairs blocked in either direction.
//   - Excludes pairs that already matched, whichever side the row stores
//     first.
//   - Ordered by created_at DESC, liker_id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *LikeRepository) GetAdmirers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Like, *string, error) {
	var likes []db.Like

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.admirerQuery(ctx, recipientID).
		Order("l.created_at DESC, l.liker_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.LikerID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(l.created_at < ? OR (l.created_at = ? AND l.liker_id < ?))",
			ts, ts, cursor.LikerID,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LikerID:     last.LikerID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountAdmirers returns how many users currently like the given recipient,
// with the same exclusions as GetAdmirers. Used behind the Redis badge cache
// (DB is the fallback).
func (r *LikeRepository) CountAdmirers(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := r.admirerQuery(ctx, recipientID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LikeRepository) admirerQuery(ctx context.Context, recipientID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("likes l").
		Where("l.liked_id = ?", recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM passes p
				WHERE p.passer_id = ?
				  AND p.passed_id = l.liker_id
			)`, recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = l.liker_id)
				   OR (b.blocker_id = l.liker_id AND b.blocked_id = ?)
			)`, recipientID, recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE (m.user1_id = ? AND m.user2_id = l.liker_id)
				   OR (m.user1_id = l.liker_id AND m.user2_id = ?)
			)`, recipientID, recipientID)
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
