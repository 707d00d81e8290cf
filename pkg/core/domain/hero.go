package domain

import "time"

// Hero is a catalog entry. Records are created either by an admin upload
// or by the seeder, which upserts using the upstream hero id.
type Hero struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	HeroImagePath string    `json:"hero_image_path"`
	RoleIconPath  string    `json:"role_icon_path"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HeroUpdate carries the fields an admin may change; empty strings mean
// "leave as is".
type HeroUpdate struct {
	Name          string
	Role          string
	HeroImagePath string
	RoleIconPath  string
}
