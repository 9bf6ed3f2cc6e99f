package feed

import (
	"context"
	"slices"
	"time"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/db"
	"github.com/emberdate/engine/internal/repository"
	"github.com/emberdate/engine/internal/utils/geo"
)

// Tier orders candidates by how warm the existing signal is. Lower ranks
// first.
type Tier int

const (
	// TierQualifiedSuperlike: candidate superliked the requester and fits the
	// requester's age/gender filter.
	TierQualifiedSuperlike Tier = iota + 1
	// TierQualifiedLike: candidate liked the requester and fits the filter.
	TierQualifiedLike
	// TierGapSuperlike: candidate superliked the requester but falls outside
	// the filter. A superlike is scarce and paid for, so it surfaces anyway.
	TierGapSuperlike
	// TierBrowse: no existing signal; must satisfy the full filter including
	// distance.
	TierBrowse
)

// Candidate is one ranked feed entry.
type Candidate struct {
	Profile           db.Profile
	Tier              Tier
	IncomingSuperlike bool
	IncomingLikedAt   time.Time
	DistanceMiles     *float64 // computed, never persisted; nil when unknown
}

// Feed is the ranked result page. QueuedLikes counts qualified likes that
// did not fit in the page, for the client's badge.
type Feed struct {
	Candidates  []Candidate
	QueuedLikes int
}

// Service is the feed ranker. Pure reads: it never mutates anything, and it
// tolerates slightly stale data by design.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	now      func() time.Time
}

// NewService creates the ranker from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		now:      time.Now,
	}
}

// GetCandidates returns up to limit ranked candidates for the requester.
//
// The repository applies the hard exclusions (self, blocks, prior decisions,
// existing matches, suppression); this method applies visibility and the
// preference filter, assigns tiers, and orders the result:
//
//	tier asc, then incoming-like recency desc, then last-active desc.
func (s *Service) GetCandidates(ctx context.Context, requesterID uint64, limit int) (Feed, error) {
	if limit <= 0 {
		limit = s.appCtx.Config.Engine.FeedLimit
	}

	requester, err := s.profiles.GetProfile(ctx, requesterID)
	if err != nil {
		return Feed{}, err
	}
	pref, err := s.profiles.GetPreference(ctx, requesterID)
	if err != nil {
		return Feed{}, err
	}

	pool, err := s.profiles.CandidatePool(ctx, requesterID)
	if err != nil {
		return Feed{}, err
	}

	ids := make([]uint64, 0, len(pool))
	for _, e := range pool {
		ids = append(ids, e.UserID)
	}
	candProfiles, err := s.profiles.ProfilesByID(ctx, ids)
	if err != nil {
		return Feed{}, err
	}
	candPrefs, err := s.profiles.PreferencesByID(ctx, ids)
	if err != nil {
		return Feed{}, err
	}

	now := s.now().UTC()
	ranked := make([]Candidate, 0, len(pool))
	for _, entry := range pool {
		profile, ok := candProfiles[entry.UserID]
		if !ok {
			continue
		}
		if !visibleTo(requester.Gender, candPrefs[entry.UserID]) {
			continue
		}

		distance := distanceBetween(requester, profile)
		qualified := matchesAgeGender(pref, profile, now)

		var tier Tier
		switch {
		case entry.IncomingLike && entry.IncomingSuperlike && qualified:
			tier = TierQualifiedSuperlike
		case entry.IncomingLike && !entry.IncomingSuperlike && qualified:
			tier = TierQualifiedLike
		case entry.IncomingLike && entry.IncomingSuperlike:
			tier = TierGapSuperlike
		case entry.IncomingLike:
			// An ordinary like from outside the filter carries no tier of
			// its own; the candidate is not surfaced.
			continue
		default:
			if !qualified || !withinDistance(pref, distance) {
				continue
			}
			tier = TierBrowse
		}

		c := Candidate{
			Profile:           profile,
			Tier:              tier,
			IncomingSuperlike: entry.IncomingSuperlike,
			DistanceMiles:     distance,
		}
		if entry.IncomingLikedAt != nil {
			c.IncomingLikedAt = *entry.IncomingLikedAt
		}
		ranked = append(ranked, c)
	}

	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		if a.Tier != b.Tier {
			return int(a.Tier) - int(b.Tier)
		}
		if !a.IncomingLikedAt.Equal(b.IncomingLikedAt) {
			if a.IncomingLikedAt.After(b.IncomingLikedAt) {
				return -1
			}
			return 1
		}
		if !a.Profile.LastActiveAt.Equal(b.Profile.LastActiveAt) {
			if a.Profile.LastActiveAt.After(b.Profile.LastActiveAt) {
				return -1
			}
			return 1
		}
		return 0
	})

	feed := Feed{Candidates: ranked}
	if len(ranked) > limit {
		for _, c := range ranked[limit:] {
			if c.Tier == TierQualifiedSuperlike || c.Tier == TierQualifiedLike {
				feed.QueuedLikes++
			}
		}
		feed.Candidates = ranked[:limit]
	}

	return feed, nil
}

// visibleTo applies the candidate's own visibility rules to the requester's
// gender: the hard-block set always wins, and an empty visible-to set means
// everyone.
func visibleTo(requesterGender string, candPref db.Preference) bool {
	if slices.Contains(candPref.HardBlockGenders, requesterGender) {
		return false
	}
	if len(candPref.VisibleTo) == 0 {
		return true
	}
	return slices.Contains(candPref.VisibleTo, requesterGender)
}

// matchesAgeGender checks the requester's gender and age-range filter.
// An empty seeking set means any gender.
func matchesAgeGender(pref db.Preference, candidate db.Profile, now time.Time) bool {
	if len(pref.SeekingGenders) > 0 && !slices.Contains(pref.SeekingGenders, candidate.Gender) {
		return false
	}
	age := candidate.Age(now)
	return age >= pref.AgeMin && age <= pref.AgeMax
}

// withinDistance applies the max-distance filter for the browse tier.
// Unknown distance (either side missing coordinates) is eligible, and a
// zero max means unlimited.
func withinDistance(pref db.Preference, distance *float64) bool {
	if pref.MaxDistanceMiles <= 0 || distance == nil {
		return true
	}
	return *distance <= float64(pref.MaxDistanceMiles)
}

func distanceBetween(a, b db.Profile) *float64 {
	if a.Lat == nil || a.Lng == nil || b.Lat == nil || b.Lng == nil {
		return nil
	}
	d := geo.MilesBetween(*a.Lat, *a.Lng, *b.Lat, *b.Lng)
	return &d
}
