package domain

import "time"

// MaxBuildsPerHero caps how many builds a single user may attach to one hero.
const MaxBuildsPerHero = 3

// MaxBuildTitleLen is the longest accepted build title, in runes.
const MaxBuildTitleLen = 50

// Build is a user-submitted image+title attached to one hero.
// DisplayOrder is unique within a (user, hero) pair; together the values
// for a pair form the dense sequence 1..N the client renders in.
type Build struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	HeroID       int64     `json:"hero_id"`
	Title        string    `json:"title"`
	ImagePath    string    `json:"image_path"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	OwnerEmail   string    `json:"owner_email,omitempty"` // populated on list, joined from users
}
