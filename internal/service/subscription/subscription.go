package subscription

import (
	"context"

	"gorm.io/gorm"

	"github.com/emberdate/engine/internal/repository"
)

// Checker is the external subscription collaborator. It gates rewind and
// superlike-with-message.
type Checker interface {
	HasActiveSubscription(ctx context.Context, userID uint64) (bool, error)
}

// DBChecker resolves entitlement from the account's premium flag. The real
// billing system lives elsewhere; it keeps this flag current.
type DBChecker struct {
	profiles *repository.ProfileRepository
}

func NewDBChecker(database *gorm.DB) *DBChecker {
	return &DBChecker{profiles: repository.NewProfileRepository(database)}
}

func (c *DBChecker) HasActiveSubscription(ctx context.Context, userID uint64) (bool, error) {
	user, err := c.profiles.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Premium, nil
}

// Static answers the same for every user. Test double.
type Static bool

func (s Static) HasActiveSubscription(context.Context, uint64) (bool, error) {
	return bool(s), nil
}
