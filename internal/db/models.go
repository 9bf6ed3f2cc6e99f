package db

import (
	"time"
)

// User is the account row. Auth and billing live elsewhere; the engine only
// reads Active (hidden accounts never rank) and Premium (gates rewind,
// superlike-with-message, and unlimited ordinary likes).
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	Premium      bool   `gorm:"not null;default:false"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Prompt is a structured profile prompt (question + the user's answer).
type Prompt struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Profile holds the dating attributes shown in the feed, one row per user.
// Mutated only by the owner's profile-edit flow; the ranker is read-only here.
//
// Lat/Lng are pointers: a profile without coarse location is still rankable,
// distance just cannot be computed for it.
type Profile struct {
	UserID       uint64    `gorm:"primaryKey"`
	Name         string    `gorm:"size:64;not null"`
	BirthDate    time.Time `gorm:"not null"`
	Gender       string    `gorm:"size:16;not null;index"`
	Bio          string    `gorm:"size:2048"`
	Neighborhood string    `gorm:"size:128"`
	Lat          *float64
	Lng          *float64
	Prompts      []Prompt `gorm:"serializer:json"`
	LookingFor   string   `gorm:"size:32"`
	Verified     bool     `gorm:"not null;default:false"`
	Suppressed   bool     `gorm:"not null;default:false"` // shadow moderation: never ranked
	LastActiveAt time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Age derives the profile's age in whole years at the given instant.
func (p Profile) Age(now time.Time) int {
	years := now.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// Preference is the per-user search criteria, one row per user.
//
// The gender sets are stored as JSON arrays. An empty VisibleTo means
// "visible to everyone"; HardBlockGenders always wins over the candidate's
// own seeking preferences.
type Preference struct {
	UserID           uint64    `gorm:"primaryKey"`
	SeekingGenders   []string  `gorm:"serializer:json"`
	AgeMin           int       `gorm:"not null;default:18"`
	AgeMax           int       `gorm:"not null;default:99"`
	MaxDistanceMiles int       `gorm:"not null;default:0"` // 0 = unlimited
	VisibleTo        []string  `gorm:"serializer:json"`
	HardBlockGenders []string  `gorm:"serializer:json"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Like is the directed "swiped right" edge.
//
// Composite PK: (LikerID, LikedID)
//   - A second like in the same direction conflicts instead of duplicating;
//     the repository surfaces that as "already present".
//
// Index idx_liked_created(liked_id, created_at DESC) serves the admirer list
// and the ranker's incoming-like join.
//
// Both directions' rows are deleted in the same transaction that creates the
// match; a like row never outlives the match it produced.
type Like struct {
	LikerID   uint64    `gorm:"primaryKey"`
	LikedID   uint64    `gorm:"primaryKey;index:idx_liked_created,priority:1"`
	Superlike bool      `gorm:"not null;default:false"`
	Message   string    `gorm:"size:512"` // superlike opener, empty otherwise
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_liked_created,priority:2,sort:desc"`
}

// Pass is the directed "swiped left" edge. Unique per pair via composite PK;
// deleted only by a successful rewind or a block cascade.
type Pass struct {
	PasserID  uint64    `gorm:"primaryKey"`
	PassedID  uint64    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match is the undirected pair, stored canonically with User1ID < User2ID so
// the unique index holds exactly one row per pair no matter which side's
// transaction created it.
type Match struct {
	ID        string    `gorm:"primaryKey;size:20"` // xid
	User1ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	User2ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// CreditBalance tracks the two purchasable counters. Both are kept
// non-negative by conditional decrements, never by validation after the fact.
type CreditBalance struct {
	UserID      uint64    `gorm:"primaryKey"`
	PaidCredits int64     `gorm:"not null;default:0"`
	BonusLikes  int64     `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// DailyLikeUsage is the free-like counter for one user on one calendar day
// (server time zone). Keying by date makes the daily reset implicit: a new
// day simply has no row yet.
type DailyLikeUsage struct {
	UserID    uint64    `gorm:"primaryKey"`
	Day       string    `gorm:"primaryKey;size:10"` // 2006-01-02
	Used      int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Block is the directed block row; the registry treats the relation as
// symmetric (a block in either direction hides and unmatches the pair).
type Block struct {
	BlockerID uint64    `gorm:"primaryKey"`
	BlockedID uint64    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
