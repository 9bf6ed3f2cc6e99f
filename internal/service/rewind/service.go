package rewind

import (
	"context"
	"time"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/repository"
	"github.com/emberdate/engine/internal/service/subscription"
)

// Service reverses a user's most recent pass so the profile can be re-shown.
// Passing never spends credits, so there is nothing to restore beyond the
// pass row itself.
type Service struct {
	appCtx   *app.AppContext
	subs     subscription.Checker
	profiles *repository.ProfileRepository
	passes   *repository.PassRepository
	now      func() time.Time
}

// NewService creates the rewind service from AppContext plus the
// subscription collaborator.
func NewService(appCtx *app.AppContext, subs subscription.Checker) *Service {
	return &Service{
		appCtx:   appCtx,
		subs:     subs,
		profiles: repository.NewProfileRepository(appCtx.DB),
		passes:   repository.NewPassRepository(appCtx.DB),
		now:      time.Now,
	}
}

// Rewind deletes the user's most recent pass and returns the un-passed
// profile.
//
// Fails with PremiumRequired without entitlement, NoRewindAvailable when the
// user has no pass on record, and RewindExpired when the most recent pass is
// older than the configured window.
func (s *Service) Rewind(ctx context.Context, userID uint64) (db.Profile, error) {
	active, err := s.subs.HasActiveSubscription(ctx, userID)
	if err != nil {
		return db.Profile{}, err
	}
	if !active {
		return db.Profile{}, svcErr.ErrPremiumRequired
	}

	last, err := s.passes.Latest(ctx, userID)
	if err != nil {
		return db.Profile{}, err
	}
	if last == nil {
		return db.Profile{}, svcErr.ErrNoRewindAvailable
	}
	if s.now().Sub(last.CreatedAt) > s.appCtx.Config.Engine.RewindWindow {
		return db.Profile{}, svcErr.ErrRewindExpired
	}

	deleted, err := s.passes.Delete(ctx, userID, last.PassedID)
	if err != nil {
		return db.Profile{}, err
	}
	if !deleted {
		// A concurrent rewind got here first.
		return db.Profile{}, svcErr.ErrNoRewindAvailable
	}

	s.appCtx.Logger.Info("pass rewound", "user", userID, "target", last.PassedID)

	return s.profiles.GetProfile(ctx, last.PassedID)
}
