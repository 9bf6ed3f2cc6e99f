package block

import (
	"context"

	"gorm.io/gorm"

	"github.com/emberdate/engine/internal/app"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/repository"
)

// Service is the block registry. A block from either side makes the pair
// mutually invisible to ranking and destroys any existing match between them.
type Service struct {
	appCtx *app.AppContext
}

// NewService creates the block registry from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// Block records the block and cascades in one transaction: the match for the
// pair and every like/pass edge between them are deleted. Message content
// cleanup belongs to the messaging layer, which observes the match deletion.
func (s *Service) Block(ctx context.Context, userID, targetID uint64) error {
	if userID == targetID {
		return svcErr.ErrSelfTarget
	}

	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewBlockRepository(tx).Insert(ctx, userID, targetID); err != nil {
			return err
		}
		if _, err := repository.NewMatchRepository(tx).DeleteForPair(ctx, userID, targetID); err != nil {
			return err
		}
		if err := repository.NewLikeRepository(tx).DeleteBetween(ctx, userID, targetID); err != nil {
			return err
		}
		return repository.NewPassRepository(tx).DeleteBetween(ctx, userID, targetID)
	})
	if err != nil {
		return err
	}

	// Either side's cached badge may have counted the other; drop both,
	// best-effort, and let the next Count repopulate from the DB.
	_ = s.appCtx.RedisCache.DropAdmirerCount(ctx, userID)
	_ = s.appCtx.RedisCache.DropAdmirerCount(ctx, targetID)

	return nil
}

// Unblock removes the caller's own block edge. The pair stays invisible if
// the other side blocked too.
func (s *Service) Unblock(ctx context.Context, userID, targetID uint64) error {
	if userID == targetID {
		return svcErr.ErrSelfTarget
	}
	_, err := repository.NewBlockRepository(s.appCtx.DB).Delete(ctx, userID, targetID)
	return err
}

// IsBlocked reports whether either side has blocked the other.
func (s *Service) IsBlocked(ctx context.Context, a, b uint64) (bool, error) {
	return repository.NewBlockRepository(s.appCtx.DB).IsBlocked(ctx, a, b)
}

// ListBlockedBy returns the ids the given user has blocked.
func (s *Service) ListBlockedBy(ctx context.Context, userID uint64) ([]uint64, error) {
	return repository.NewBlockRepository(s.appCtx.DB).ListBlockedBy(ctx, userID)
}
