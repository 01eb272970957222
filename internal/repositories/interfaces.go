package repositories

import (
	"context"
	"errors"
	"time"

	"placehub/internal/models"
)

// ErrReferenceNotFound is returned when a write names a user or badge that
// does not exist.
var ErrReferenceNotFound = errors.New("referenced row not found")

// BadgeRepository reads and seeds the badge catalog.
type BadgeRepository interface {
	// GetByID returns nil, nil when the badge is not in the catalog.
	GetByID(ctx context.Context, badgeID string) (*models.Badge, error)
	List(ctx context.Context) ([]*models.Badge, error)
	// Upsert creates or updates display metadata. TotalAwarded is never
	// written here.
	Upsert(ctx context.Context, badge *models.Badge) error
}

// AwardRepository owns the user to badge relation.
type AwardRepository interface {
	// Grant records the award and bumps the badge counter in one
	// transaction, reporting whether a new row was inserted. A second
	// grant of the same pair is a no-op returning false.
	Grant(ctx context.Context, userID int64, badgeID string, earnedAt time.Time) (bool, error)
	// ListByUser returns awards ordered by EarnedAt.
	ListByUser(ctx context.Context, userID int64) ([]models.UserBadge, error)
}

// UserRepository is the slice of the user directory the engine needs.
type UserRepository interface {
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// ActivityRepository answers read-only aggregate questions about reviews
// and events. Only published reviews and completed events are counted.
// Zero activity yields zero values and empty collections.
type ActivityRepository interface {
	// GetReview returns nil, nil when the review is missing or unpublished.
	GetReview(ctx context.Context, reviewID int64) (*models.Review, error)
	ListReviewIDsByAuthor(ctx context.Context, userID int64) ([]int64, error)
	CountPlaceReviews(ctx context.Context, placeID int64) (int, error)
	CountPhotoReviews(ctx context.Context, userID int64) (int, error)
	// CountFirstReviews counts the user's reviews that were the earliest
	// published review of their place.
	CountFirstReviews(ctx context.Context, userID int64) (int, error)
	CountCategoryPlaces(ctx context.Context, userID int64, category string) (int, error)

	// AttendedEventTimes returns start times ascending.
	AttendedEventTimes(ctx context.Context, userID int64) ([]time.Time, error)
	MaxHostedAttendance(ctx context.Context, userID int64) (int, error)
	// CoAttendeeCounts maps each accepted friend to the number of completed
	// events both attended. The user is never a key.
	CoAttendeeCounts(ctx context.Context, userID int64) (map[int64]int, error)
}
