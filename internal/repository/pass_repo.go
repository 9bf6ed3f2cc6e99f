package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/engine/internal/db"
)

// PassRepository provides data access for the directed Pass edge.
type PassRepository struct {
	db *gorm.DB
}

// NewPassRepository creates a new repository bound to the given DB connection.
func NewPassRepository(database *gorm.DB) *PassRepository {
	return &PassRepository{db: database}
}

// Insert records a pass edge. Repeating a pass on the same target is a no-op;
// the original created_at is kept so the rewind window does not slide.
func (r *PassRepository) Insert(ctx context.Context, passerID, passedID uint64) error {
	pass := db.Pass{
		PasserID: passerID,
		PassedID: passedID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "passer_id"}, {Name: "passed_id"}},
			DoNothing: true,
		}).
		Create(&pass).Error
}

// Latest returns the passer's most recent pass, or nil when they have none.
func (r *PassRepository) Latest(ctx context.Context, passerID uint64) (*db.Pass, error) {
	var passes []db.Pass
	err := r.db.WithContext(ctx).
		Where("passer_id = ?", passerID).
		Order("created_at DESC, passed_id DESC").
		Limit(1).
		Find(&passes).Error
	if err != nil {
		return nil, err
	}
	if len(passes) == 0 {
		return nil, nil
	}
	return &passes[0], nil
}

// Delete removes one directed pass edge. Returns whether a row was deleted,
// so a raced rewind can tell it has nothing left to undo.
func (r *PassRepository) Delete(ctx context.Context, passerID, passedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("passer_id = ? AND passed_id = ?", passerID, passedID).
		Delete(&db.Pass{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteBetween purges both directions' pass rows for a pair (block cascade).
func (r *PassRepository) DeleteBetween(ctx context.Context, a, b uint64) error {
	return r.db.WithContext(ctx).
		Where("(passer_id = ? AND passed_id = ?) OR (passer_id = ? AND passed_id = ?)", a, b, b, a).
		Delete(&db.Pass{}).Error
}
