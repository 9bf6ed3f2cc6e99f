package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/engine/internal/db"
)

// BlockRepository provides data access for the block relation. Rows are
// directed (who pressed the button matters for unblocking) but every lookup
// treats the relation as symmetric.
type BlockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new repository bound to the given DB connection.
func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Insert records a block edge; repeating it is a no-op.
func (r *BlockRepository) Insert(ctx context.Context, blockerID, blockedID uint64) error {
	block := db.Block{
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).
		Create(&block).Error
}

// Delete removes the blocker's own edge only; a block from the other side
// keeps the pair invisible.
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.Block{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsBlocked reports whether either user has blocked the other.
func (r *BlockRepository) IsBlocked(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// ListBlockedBy returns the ids the given user has blocked.
func (r *BlockRepository) ListBlockedBy(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}
