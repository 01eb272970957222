package services

import (
	"context"
	"time"
)

// AwardLedger grants badges. It is the only writer of awards and of the
// catalog award counters.
type AwardLedger interface {
	// Award reports whether a new award was recorded. Unknown users and
	// badges are no-ops returning false. Only data-store failures are
	// returned as errors.
	Award(ctx context.Context, userID int64, badgeID string) (bool, error)
}

// BadgeService is the entry point for badge evaluation triggers.
type BadgeService interface {
	OnReviewCreated(ctx context.Context, userID, reviewID int64) error
	OnReviewLiked(ctx context.Context, reviewID int64) error
	OnEventBadgesCheck(ctx context.Context, userID int64) error
	// OnManualRecheck re-runs every review and event rule for the user
	// and returns the ids granted by this call.
	OnManualRecheck(ctx context.Context, userID int64) ([]string, error)

	ListUserBadges(ctx context.Context, userID int64) ([]UserBadgeView, error)
}

// UserBadgeView is a held badge joined with its catalog metadata.
type UserBadgeView struct {
	BadgeID     string    `json:"badge_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tier        *string   `json:"tier,omitempty"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Trigger names used for metrics and logs.
const (
	TriggerReviewCreated = "review_created"
	TriggerReviewLiked   = "review_liked"
	TriggerEventCheck    = "event_check"
	TriggerManualRecheck = "manual_recheck"
)
