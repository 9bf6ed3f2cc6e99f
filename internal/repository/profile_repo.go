package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
)

// poolLimit caps how many raw candidates one feed request pulls before
// ranking. Tiering happens in memory, so the pool has to stay bounded.
const poolLimit = 500

// PoolEntry is one raw feed candidate before ranking: the candidate id plus
// whatever like edge the candidate already holds toward the requester.
type PoolEntry struct {
	UserID            uint64
	IncomingLike      bool
	IncomingSuperlike bool
	IncomingLikedAt   *time.Time
}

// ProfileRepository provides the ranker's read paths over users, profiles
// and preferences. It never writes.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetUser returns the account row.
func (r *ProfileRepository) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		Limit(1).
		Find(&users).Error
	if err != nil {
		return db.User{}, err
	}
	if len(users) == 0 {
		return db.User{}, svcErr.NotFound("user not found")
	}
	return users[0], nil
}

// GetProfile returns the dating profile for a user.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID uint64) (db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&profiles).Error
	if err != nil {
		return db.Profile{}, err
	}
	if len(profiles) == 0 {
		return db.Profile{}, svcErr.NotFound("profile not found")
	}
	return profiles[0], nil
}

// GetPreference returns the user's search criteria. A user who never saved
// preferences gets the permissive default: any gender, 18-99, unlimited
// distance, visible to everyone.
func (r *ProfileRepository) GetPreference(ctx context.Context, userID uint64) (db.Preference, error) {
	var prefs []db.Preference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&prefs).Error
	if err != nil {
		return db.Preference{}, err
	}
	if len(prefs) == 0 {
		return db.Preference{UserID: userID, AgeMin: 18, AgeMax: 99}, nil
	}
	return prefs[0], nil
}

// ProfilesByID loads full profiles for a set of ids.
func (r *ProfileRepository) ProfilesByID(ctx context.Context, ids []uint64) (map[uint64]db.Profile, error) {
	out := make(map[uint64]db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// PreferencesByID loads preferences for a set of ids. Users without a saved
// row are simply absent; callers fall back to the permissive default.
func (r *ProfileRepository) PreferencesByID(ctx context.Context, ids []uint64) (map[uint64]db.Preference, error) {
	out := make(map[uint64]db.Preference, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var prefs []db.Preference
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&prefs).Error
	if err != nil {
		return nil, err
	}
	for _, p := range prefs {
		out[p.UserID] = p
	}
	return out, nil
}

// CandidatePool returns every profile the requester could possibly be shown,
// after the hard exclusions:
//
//   - self
//   - blocked in either direction
//   - already liked or passed by the requester
//   - already matched with the requester
//   - shadow-suppressed or deactivated accounts
//
// An incoming like from the candidate rides along for tiering. Visibility
// and preference filtering happen in the service, where the gender sets are
// already deserialized.
func (r *ProfileRepository) CandidatePool(ctx context.Context, requesterID uint64) ([]PoolEntry, error) {
	var entries []PoolEntry
	err := r.db.WithContext(ctx).
		Table("profiles p").
		Select(`p.user_id,
			l.liker_id IS NOT NULL AS incoming_like,
			COALESCE(l.superlike, false) AS incoming_superlike,
			l.created_at AS incoming_liked_at`).
		Joins("JOIN users u ON u.id = p.user_id AND u.active").
		Joins("LEFT JOIN likes l ON l.liker_id = p.user_id AND l.liked_id = ?", requesterID).
		Where("p.user_id <> ?", requesterID).
		Where("p.suppressed = ?", false).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes me
				WHERE me.liker_id = ? AND me.liked_id = p.user_id
			)`, requesterID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM passes ps
				WHERE ps.passer_id = ? AND ps.passed_id = p.user_id
			)`, requesterID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE (m.user1_id = ? AND m.user2_id = p.user_id)
				   OR (m.user1_id = p.user_id AND m.user2_id = ?)
			)`, requesterID, requesterID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = p.user_id)
				   OR (b.blocker_id = p.user_id AND b.blocked_id = ?)
			)`, requesterID, requesterID).
		Limit(poolLimit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
