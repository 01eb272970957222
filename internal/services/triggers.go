package services

import (
	"context"
	"errors"

	"placehub/internal/events"
)

// RegisterTriggers subscribes svc to the activity events that can earn
// badges.
func RegisterTriggers(bus events.EventBus, svc BadgeService) error {
	handlers := []struct {
		eventType string
		handler   events.EventHandler
	}{
		{events.ReviewCreated, events.NewTypedEventHandler("badges.review_created",
			func(ctx context.Context, e *events.ReviewCreatedEvent) error {
				return svc.OnReviewCreated(ctx, e.AuthorID, e.ReviewID)
			})},
		{events.ReviewLiked, events.NewTypedEventHandler("badges.review_liked",
			func(ctx context.Context, e *events.ReviewLikedEvent) error {
				return svc.OnReviewLiked(ctx, e.ReviewID)
			})},
		{events.EventCompleted, events.NewTypedEventHandler("badges.event_completed",
			func(ctx context.Context, e *events.EventCompletedEvent) error {
				var errs []error
				for _, userID := range e.Participants() {
					if err := svc.OnEventBadgesCheck(ctx, userID); err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			})},
	}

	for _, h := range handlers {
		if err := bus.Subscribe(h.eventType, h.handler); err != nil {
			return err
		}
	}
	return nil
}
