package swipe

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/notify"
	"github.com/emberdate/engine/internal/repository"
	"github.com/emberdate/engine/internal/service/subscription"
)

// Result reports the outcome of a like/superlike. Matched is true whenever a
// mutual match exists after the swipe, whether this request created it or a
// concurrent one did.
type Result struct {
	Matched bool
	MatchID string
}

// Service records swipe decisions, enforces the credit/quota gates, and runs
// the mutual-match transaction. All coordination happens through the store;
// the service itself holds no mutable state and is safe for concurrent use.
type Service struct {
	appCtx   *app.AppContext
	subs     subscription.Checker
	notifier notify.Publisher
	now      func() time.Time
}

// NewService wires the swipe engine from AppContext plus its collaborators.
func NewService(appCtx *app.AppContext, subs subscription.Checker, notifier notify.Publisher) *Service {
	return &Service{
		appCtx:   appCtx,
		subs:     subs,
		notifier: notifier,
		now:      time.Now,
	}
}

// Swipe dispatches a decision on the closed Action set.
// The message is only meaningful for superlikes.
func (s *Service) Swipe(ctx context.Context, userID, targetID uint64, action Action, message string) (Result, error) {
	switch action {
	case ActionLike:
		if message != "" {
			return Result{}, svcErr.InvalidArgument("message requires a superlike")
		}
		return s.Like(ctx, userID, targetID, false, "")
	case ActionPass:
		if message != "" {
			return Result{}, svcErr.InvalidArgument("message requires a superlike")
		}
		return Result{}, s.Pass(ctx, userID, targetID)
	case ActionSuperlike:
		return s.Like(ctx, userID, targetID, true, message)
	default:
		return Result{}, svcErr.InvalidArgument("unknown swipe action")
	}
}

// Like records a like or superlike and, when it completes a mutual pair,
// creates the match.
//
// The whole mutation runs as one transaction:
//
//  1. Spend the credit/quota (conditional decrement; failure aborts with no
//     mutation).
//  2. Conflict-safe like insert; an existing row aborts with AlreadyLiked,
//     rolling the spend back with it.
//  3. Locked read of the opposite-direction like. No row → commit, no match.
//  4. Canonical-pair match insert, no-op on conflict. Both outcomes delete
//     the pair's like rows, but only the transaction whose insert stuck
//     later emits the matched event.
func (s *Service) Like(ctx context.Context, userID, targetID uint64, superlike bool, message string) (Result, error) {
	if userID == targetID {
		return Result{}, svcErr.ErrSelfTarget
	}

	profiles := repository.NewProfileRepository(s.appCtx.DB)
	user, err := profiles.GetUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if _, err := profiles.GetUser(ctx, targetID); err != nil {
		return Result{}, err
	}

	if blocked, err := repository.NewBlockRepository(s.appCtx.DB).IsBlocked(ctx, userID, targetID); err != nil {
		return Result{}, err
	} else if blocked {
		return Result{}, svcErr.ErrBlocked
	}

	if superlike && message != "" {
		active, err := s.subs.HasActiveSubscription(ctx, userID)
		if err != nil {
			return Result{}, err
		}
		if !active {
			return Result{}, svcErr.ErrPremiumRequired
		}
	}

	var (
		result  Result
		created *notify.MatchEvent
	)
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		likes := repository.NewLikeRepository(tx)
		matches := repository.NewMatchRepository(tx)
		credits := repository.NewCreditRepository(tx)

		if superlike {
			// Bonus likes are spent before paid credits.
			if err := credits.UseBonusLike(ctx, userID); err != nil {
				if !errors.Is(err, svcErr.ErrInsufficientCredits) {
					return err
				}
				if err := credits.DeductCredits(ctx, userID, 1); err != nil {
					if errors.Is(err, svcErr.ErrInsufficientCredits) {
						return svcErr.ErrInsufficientLikes
					}
					return err
				}
			}
		} else if !user.Premium {
			day := s.now().UTC().Format("2006-01-02")
			if err := credits.UseDailyFreeLike(ctx, userID, day, s.appCtx.Config.Engine.DailyFreeLikes); err != nil {
				return err
			}
		}

		inserted, err := likes.Insert(ctx, db.Like{
			LikerID:   userID,
			LikedID:   targetID,
			Superlike: superlike,
			Message:   message,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// Duplicate swipe: abort so the spend above rolls back too.
			return svcErr.ErrAlreadyLiked
		}

		opposite, err := likes.GetForUpdate(ctx, targetID, userID)
		if err != nil {
			return err
		}
		if opposite == nil {
			return nil // like persists, no match yet
		}

		match, won, err := matches.CreateIfAbsent(ctx, userID, targetID)
		if err != nil {
			return err
		}
		result = Result{Matched: match.ID != "", MatchID: match.ID}

		// Both the winner and a raced loser purge the like rows: a like on an
		// already-matched pair would otherwise leave its row dangling next to
		// the match. Only the winner emits the event.
		if err := likes.DeleteBetween(ctx, userID, targetID); err != nil {
			return err
		}
		if !won {
			return nil
		}

		opener := message
		if opener == "" {
			opener = opposite.Message
		}
		created = &notify.MatchEvent{
			MatchID:   match.ID,
			User1ID:   match.User1ID,
			User2ID:   match.User2ID,
			Opener:    opener,
			CreatedAt: match.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// Post-commit effects: the matched event fires exactly once (only the
	// winning transaction populated it), and the cached admirer badges are
	// nudged best-effort.
	if created != nil {
		s.notifier.MatchCreated(ctx, *created)
		_ = s.appCtx.RedisCache.BumpAdmirerCount(ctx, userID, -1)
		s.appCtx.Logger.Info("match created",
			"match_id", created.MatchID, "user1", created.User1ID, "user2", created.User2ID)
	} else if !result.Matched {
		_ = s.appCtx.RedisCache.BumpAdmirerCount(ctx, targetID, 1)
	}

	return result, nil
}

// Pass records a pass. Fails only on self-target or a blocked pair;
// repeating a pass is a no-op.
func (s *Service) Pass(ctx context.Context, userID, targetID uint64) error {
	if userID == targetID {
		return svcErr.ErrSelfTarget
	}

	if blocked, err := repository.NewBlockRepository(s.appCtx.DB).IsBlocked(ctx, userID, targetID); err != nil {
		return err
	} else if blocked {
		return svcErr.ErrBlocked
	}

	return repository.NewPassRepository(s.appCtx.DB).Insert(ctx, userID, targetID)
}
