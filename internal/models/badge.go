package models

import "time"

// Badge represents a catalog entry for an achievement users can earn
// once by reaching a milestone or an activity pattern.
type Badge struct {
	BadgeID      string    `json:"badge_id" db:"badge_id" validate:"required,max=64"`
	Name         string    `json:"name" db:"name" validate:"required,max=100"`
	Description  string    `json:"description" db:"description" validate:"max=500"`
	Category     string    `json:"category" db:"category" validate:"required,oneof=review event social"`
	Tier         *string   `json:"tier,omitempty" db:"tier" validate:"omitempty,oneof=bronze silver gold"`
	TotalAwarded int64     `json:"total_awarded" db:"total_awarded"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserBadge is the fact that a user holds a badge, earned at a point in time.
type UserBadge struct {
	UserID   int64     `json:"user_id" db:"user_id"`
	BadgeID  string    `json:"badge_id" db:"badge_id"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

// Badge categories
const (
	BadgeCategoryReview = "review"
	BadgeCategoryEvent  = "event"
	BadgeCategorySocial = "social"
)

// Badge tiers
const (
	BadgeTierBronze = "bronze"
	BadgeTierSilver = "silver"
	BadgeTierGold   = "gold"
)
