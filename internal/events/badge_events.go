package events

import "time"

// Event types
const (
	ReviewCreated  = "review.created"
	ReviewLiked    = "review.liked"
	EventCompleted = "event.completed"
	BadgeAwarded   = "badge.awarded"
)

// ReviewCreatedEvent is published by the review write path after commit.
type ReviewCreatedEvent struct {
	BaseEvent
	ReviewID int64 `json:"review_id"`
	AuthorID int64 `json:"author_id"`
}

// ReviewLikedEvent is published after a like is committed.
type ReviewLikedEvent struct {
	BaseEvent
	ReviewID int64 `json:"review_id"`
}

// EventCompletedEvent is published when an event is marked completed. The
// host and every attendee need their event badges re-evaluated.
type EventCompletedEvent struct {
	BaseEvent
	EventID     int64   `json:"event_id"`
	HostID      int64   `json:"host_id"`
	AttendeeIDs []int64 `json:"attendee_ids"`
}

// BadgeAwardedEvent is published by the award ledger for each new award.
type BadgeAwardedEvent struct {
	BaseEvent
	BadgeID  string    `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
}

func NewReviewCreatedEvent(reviewID, authorID int64) *ReviewCreatedEvent {
	return &ReviewCreatedEvent{
		BaseEvent: newBaseEvent(ReviewCreated, &authorID),
		ReviewID:  reviewID,
		AuthorID:  authorID,
	}
}

func NewReviewLikedEvent(reviewID int64, likerID *int64) *ReviewLikedEvent {
	return &ReviewLikedEvent{
		BaseEvent: newBaseEvent(ReviewLiked, likerID),
		ReviewID:  reviewID,
	}
}

func NewEventCompletedEvent(eventID, hostID int64, attendeeIDs []int64) *EventCompletedEvent {
	return &EventCompletedEvent{
		BaseEvent:   newBaseEvent(EventCompleted, &hostID),
		EventID:     eventID,
		HostID:      hostID,
		AttendeeIDs: attendeeIDs,
	}
}

func NewBadgeAwardedEvent(userID int64, badgeID string, earnedAt time.Time) *BadgeAwardedEvent {
	return &BadgeAwardedEvent{
		BaseEvent: newBaseEvent(BadgeAwarded, &userID),
		BadgeID:   badgeID,
		EarnedAt:  earnedAt,
	}
}

// Participants returns the host followed by attendees, without duplicates.
func (e *EventCompletedEvent) Participants() []int64 {
	seen := map[int64]bool{e.HostID: true}
	out := []int64{e.HostID}
	for _, id := range e.AttendeeIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
