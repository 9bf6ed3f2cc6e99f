package admirers

import (
	"context"
	"strconv"
	"time"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/repository"
)

// Admirer is one incoming like, as shown in the "liked you" list.
type Admirer struct {
	LikerID   uint64
	Superlike bool
	LikedAt   time.Time
}

// Page is one page of admirers plus the cursor for the next one.
type Page struct {
	Admirers  []Admirer
	NextToken *string
}

// Service is the "who liked you" read model: the list behind the likes
// screen and the cached count behind the badge.
type Service struct {
	appCtx *app.AppContext
	likes  *repository.LikeRepository
}

// NewService creates the admirers service from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		likes:  repository.NewLikeRepository(appCtx.DB),
	}
}

// List returns users who liked the recipient and can still become a match
// (passed, blocked, and already-matched pairs are excluded), newest first,
// with cursor-based pagination.
func (s *Service) List(ctx context.Context, userID uint64, paginationToken *string) (Page, error) {
	s.appCtx.Logger.Debug("admirers list", "recipient", userID)

	likes, nextToken, err := s.likes.GetAdmirers(ctx, userID, paginationToken, s.appCtx.Config.Engine.AdmirerPageSize)
	if err != nil {
		return Page{}, err
	}

	page := Page{NextToken: nextToken}
	for _, l := range likes {
		page.Admirers = append(page.Admirers, Admirer{
			LikerID:   l.LikerID,
			Superlike: l.Superlike,
			LikedAt:   l.CreatedAt,
		})
	}
	return page, nil
}

// Count returns how many users currently like the recipient.
// Cache-first strategy:
//  1. Attempts to read from Redis (admirers:count:userID, TTL refreshed).
//  2. On a miss, falls back to the DB.
//  3. Repopulates Redis with a fresh TTL.
func (s *Service) Count(ctx context.Context, userID uint64) (int64, error) {
	if cached, hit, err := s.appCtx.RedisCache.GetAdmirerCount(ctx, userID); err == nil && hit {
		return cached, nil
	}

	count, err := s.likes.CountAdmirers(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.appCtx.RedisCache.SetAdmirerCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("failed to cache admirer count",
			"user", strconv.FormatUint(userID, 10), "err", err)
	}

	return count, nil
}
