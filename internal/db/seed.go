package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedNeighborhoods = []string{
	"Shoreditch", "Camden", "Brixton", "Hackney", "Islington", "Peckham",
}

// SeedTestData resets the database and populates it with demo users.
//
// Behavior:
//  1. Clears all engine tables.
//  2. Creates 20 users (10 male, 10 female) with profiles, preferences,
//     and a starter credit balance; users 1 and 11 are premium.
//  3. Generates ~200 like/pass edges with ~70% likes. Mutual likes are left
//     in place so the first swipes against seeded data produce matches.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"likes", "passes", "matches", "blocks", "daily_like_usages", "credit_balances", "preferences", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Println("Cleared existing data")

	// --- Seed users, profiles, preferences, credits ---
	baseLat, baseLng := 51.5074, -0.1278
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender, seeking := "male", "female"
		if i > 10 {
			gender, seeking = "female", "male"
		}

		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
			Premium:      i == 1 || i == 11,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		lat := baseLat + (r.Float64()-0.5)*0.4
		lng := baseLng + (r.Float64()-0.5)*0.4
		profile := Profile{
			UserID:       user.ID,
			Name:         fmt.Sprintf("User %d", i),
			BirthDate:    time.Date(1999-r.Intn(12), time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC),
			Gender:       gender,
			Bio:          "Ask me about my plants.",
			Neighborhood: seedNeighborhoods[r.Intn(len(seedNeighborhoods))],
			Lat:          &lat,
			Lng:          &lng,
			Prompts: []Prompt{
				{Question: "A perfect Sunday", Answer: "Long walk, longer brunch."},
			},
			LookingFor:   "relationship",
			Verified:     r.Intn(100) < 40,
			LastActiveAt: time.Now().Add(-time.Duration(r.Intn(72)) * time.Hour),
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		pref := Preference{
			UserID:           user.ID,
			SeekingGenders:   []string{seeking},
			AgeMin:           21,
			AgeMax:           40,
			MaxDistanceMiles: 50,
		}
		if err := db.Create(&pref).Error; err != nil {
			return fmt.Errorf("failed to seed preference: %w", err)
		}

		credits := CreditBalance{
			UserID:      user.ID,
			PaidCredits: int64(r.Intn(5)),
			BonusLikes:  int64(r.Intn(3)),
		}
		if err := db.Create(&credits).Error; err != nil {
			return fmt.Errorf("failed to seed credits: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed like/pass edges (~200) ---
	var users []User
	if err := db.Find(&users).Error; err != nil {
		return err
	}
	genderByID := make(map[uint64]string, len(users))
	ids := make([]uint64, 0, len(users))
	for _, u := range users {
		var p Profile
		if err := db.First(&p, "user_id = ?", u.ID).Error; err != nil {
			return err
		}
		genderByID[u.ID] = p.Gender
		ids = append(ids, u.ID)
	}

	for _, actorID := range ids {
		for j := 0; j < 12; j++ {
			targetID := ids[r.Intn(len(ids))]
			if actorID == targetID || genderByID[actorID] == genderByID[targetID] {
				continue
			}

			if r.Intn(100) < 70 {
				like := Like{
					LikerID:   actorID,
					LikedID:   targetID,
					Superlike: r.Intn(100) < 10,
				}
				if err := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
					DoNothing: true,
				}).Create(&like).Error; err != nil {
					return fmt.Errorf("failed to seed like: %w", err)
				}
			} else {
				pass := Pass{PasserID: actorID, PassedID: targetID}
				if err := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "passer_id"}, {Name: "passed_id"}},
					DoNothing: true,
				}).Create(&pass).Error; err != nil {
					return fmt.Errorf("failed to seed pass: %w", err)
				}
			}
		}
	}

	return nil
}
