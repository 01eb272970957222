// file: internal/models/models.go
package models

import (
	"strings"
	"time"
)

// ===============================
// CORE ENTITIES
// ===============================

// User is the subject of badge evaluation. Badges is ordered by EarnedAt.
type User struct {
	ID        int64       `json:"id" db:"id"`
	Username  string      `json:"username" db:"username"`
	Badges    []UserBadge `json:"badges,omitempty" db:"-"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// Place is a reviewable location.
type Place struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Review is a user's review of a place, optionally written for an event.
type Review struct {
	ID         int64     `json:"id" db:"id"`
	AuthorID   int64     `json:"author_id" db:"author_id"`
	PlaceID    int64     `json:"place_id" db:"place_id"`
	EventID    *int64    `json:"event_id,omitempty" db:"event_id"`
	Body       string    `json:"body" db:"body"`
	PhotoCount int       `json:"photo_count" db:"photo_count"`
	LikesCount int       `json:"likes_count" db:"likes_count"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Joined from places
	PlaceCategory string `json:"place_category" db:"place_category"`
}

// Event is a scheduled meetup at a place.
type Event struct {
	ID       int64     `json:"id" db:"id"`
	HostID   int64     `json:"host_id" db:"host_id"`
	PlaceID  int64     `json:"place_id" db:"place_id"`
	Title    string    `json:"title" db:"title"`
	Status   string    `json:"status" db:"status"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
}

// ===============================
// STATUS VALUES
// ===============================

const (
	ReviewStatusDraft     = "draft"
	ReviewStatusPublished = "published"
	ReviewStatusRemoved   = "removed"

	EventStatusScheduled = "scheduled"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"

	FriendshipStatusPending  = "pending"
	FriendshipStatusAccepted = "accepted"
)

// ===============================
// HELPER METHODS
// ===============================

// WordCount returns the number of whitespace separated words in the body.
func (r *Review) WordCount() int {
	return len(strings.Fields(r.Body))
}
