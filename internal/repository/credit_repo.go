package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
)

// CreditRepository is the credit ledger: paid credits, bonus likes, and the
// date-scoped daily free-like counter.
//
// Every spend is a single conditional UPDATE ("decrement only if enough" /
// "increment only if under limit"), so two concurrent spends can never both
// succeed past the limit and no counter ever goes negative. There is no
// post-hoc validation and no scheduled daily reset: a new calendar day simply
// has no usage row yet.
type CreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new repository bound to the given DB connection.
func NewCreditRepository(database *gorm.DB) *CreditRepository {
	return &CreditRepository{db: database}
}

// Balance returns the user's credit balance; a user without a row has zero
// of everything.
func (r *CreditRepository) Balance(ctx context.Context, userID uint64) (db.CreditBalance, error) {
	var rows []db.CreditBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return db.CreditBalance{}, err
	}
	if len(rows) == 0 {
		return db.CreditBalance{UserID: userID}, nil
	}
	return rows[0], nil
}

// Grant adds paid credits and/or bonus likes, creating the balance row if
// needed. Used by the (out-of-scope) billing flow and by seeding.
func (r *CreditRepository) Grant(ctx context.Context, userID uint64, paid, bonus int64) error {
	row := db.CreditBalance{UserID: userID, PaidCredits: paid, BonusLikes: bonus}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"paid_credits": gorm.Expr("paid_credits + ?", paid),
				"bonus_likes":  gorm.Expr("bonus_likes + ?", bonus),
			}),
		}).
		Create(&row).Error
}

// DeductCredits spends n paid credits, failing with InsufficientCredits and
// no partial effect when the balance is short.
func (r *CreditRepository) DeductCredits(ctx context.Context, userID uint64, n int64) error {
	res := r.db.WithContext(ctx).
		Model(&db.CreditBalance{}).
		Where("user_id = ? AND paid_credits >= ?", userID, n).
		Update("paid_credits", gorm.Expr("paid_credits - ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.ErrInsufficientCredits
	}
	return nil
}

// UseBonusLike spends one bonus like, failing with InsufficientCredits when
// none remain.
func (r *CreditRepository) UseBonusLike(ctx context.Context, userID uint64) error {
	res := r.db.WithContext(ctx).
		Model(&db.CreditBalance{}).
		Where("user_id = ? AND bonus_likes >= 1", userID).
		Update("bonus_likes", gorm.Expr("bonus_likes - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.ErrInsufficientCredits
	}
	return nil
}

// UseDailyFreeLike consumes one unit of the day's free-like quota, failing
// with DailyLimitReached once used reaches dailyLimit.
//
// Two steps: make sure the (user, day) row exists, then a conditional
// increment gated on the limit. The conditional UPDATE alone is the
// correctness gate; the upsert only avoids an insert/update race on the
// day's first like.
func (r *CreditRepository) UseDailyFreeLike(ctx context.Context, userID uint64, day string, dailyLimit int) error {
	row := db.DailyLikeUsage{UserID: userID, Day: day, Used: 0}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Model(&db.DailyLikeUsage{}).
		Where("user_id = ? AND day = ? AND used < ?", userID, day, dailyLimit).
		Update("used", gorm.Expr("used + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return svcErr.ErrDailyLimitReached
	}
	return nil
}

// DailyUsed reports how much of the day's free-like quota is spent.
func (r *CreditRepository) DailyUsed(ctx context.Context, userID uint64, day string) (int, error) {
	var rows []db.DailyLikeUsage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Used, nil
}
