package repository

import (
	"context"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/engine/internal/db"
)

// MatchRepository provides data access for the undirected Match pair.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CanonicalPair orders an unordered user pair as (min, max), the form every
// match row is stored in.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// CreateIfAbsent inserts the match row for the pair with a conflict-safe
// insert. Returns the stored row and whether this call created it.
//
// When two mutual-like transactions race, both reach this insert; the unique
// (user1_id, user2_id) index lets exactly one of them win. The loser gets
// created=false and must not delete likes or emit a matched event.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b uint64) (db.Match, bool, error) {
	u1, u2 := CanonicalPair(a, b)
	match := db.Match{
		ID:      xid.New().String(),
		User1ID: u1,
		User2ID: u2,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return db.Match{}, false, res.Error
	}
	if res.RowsAffected > 0 {
		return match, true, nil
	}

	// Lost the race: report the row the other transaction created.
	existing, err := r.GetForPair(ctx, u1, u2)
	if err != nil {
		return db.Match{}, false, err
	}
	if existing == nil {
		// Conflict without a visible row only happens if the winner has not
		// committed yet; the caller treats it the same as losing the race.
		return db.Match{}, false, nil
	}
	return *existing, false, nil
}

// GetForPair returns the match row for an unordered pair, or nil when absent.
func (r *MatchRepository) GetForPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	u1, u2 := CanonicalPair(a, b)
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Limit(1).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// DeleteForPair removes the match row for an unordered pair. Exposed to the
// block registry (a block from either side destroys the match) and unmatch.
// Returns whether a row was deleted.
func (r *MatchRepository) DeleteForPair(ctx context.Context, a, b uint64) (bool, error) {
	u1, u2 := CanonicalPair(a, b)
	res := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Delete(&db.Match{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListForUser returns the user's matches, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64, limit int) ([]db.Match, error) {
	if limit <= 0 {
		limit = 100
	}
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&matches).Error
	return matches, err
}
