package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"placehub/internal/events"
	"placehub/internal/monitoring"
	"placehub/internal/repositories"
)

type awardLedger struct {
	badges  repositories.BadgeRepository
	users   repositories.UserRepository
	awards  repositories.AwardRepository
	bus     events.EventBus
	metrics *monitoring.BadgeMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAwardLedger creates the ledger. bus and metrics may be nil.
func NewAwardLedger(
	badges repositories.BadgeRepository,
	users repositories.UserRepository,
	awards repositories.AwardRepository,
	bus events.EventBus,
	metrics *monitoring.BadgeMetrics,
	logger *zap.Logger,
) AwardLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &awardLedger{
		badges:  badges,
		users:   users,
		awards:  awards,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (l *awardLedger) Award(ctx context.Context, userID int64, badgeID string) (bool, error) {
	badge, err := l.badges.GetByID(ctx, badgeID)
	if err != nil {
		return false, fmt.Errorf("look up badge %s: %w", badgeID, err)
	}
	if badge == nil {
		l.logger.Warn("Badge missing from catalog",
			zap.String("badge_id", badgeID),
			zap.Int64("user_id", userID),
		)
		return false, nil
	}

	exists, err := l.users.Exists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("look up user %d: %w", userID, err)
	}
	if !exists {
		l.logger.Debug("Skipping award for unknown user",
			zap.Int64("user_id", userID),
			zap.String("badge_id", badgeID),
		)
		return false, nil
	}

	earnedAt := l.now()
	granted, err := l.awards.Grant(ctx, userID, badgeID, earnedAt)
	if errors.Is(err, repositories.ErrReferenceNotFound) {
		// Deleted between the lookups and the insert.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("grant %s to user %d: %w", badgeID, userID, err)
	}
	if !granted {
		return false, nil
	}

	if inv, ok := l.badges.(repositories.Invalidator); ok {
		inv.Invalidate(ctx, badgeID)
	}
	l.metrics.RecordAward(badgeID)

	l.logger.Info("Badge awarded",
		zap.Int64("user_id", userID),
		zap.String("badge_id", badgeID),
	)

	if l.bus != nil {
		if err := l.bus.PublishAsync(ctx, events.NewBadgeAwardedEvent(userID, badgeID, earnedAt)); err != nil {
			l.logger.Warn("Failed to publish badge awarded event",
				zap.Error(err),
				zap.Int64("user_id", userID),
				zap.String("badge_id", badgeID),
			)
		}
	}

	return true, nil
}
