package repositories

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"placehub/internal/cache"
	"placehub/internal/models"
)

// Invalidator is implemented by repositories that keep a read cache.
type Invalidator interface {
	Invalidate(ctx context.Context, badgeID string)
}

// cachedBadgeRepository serves GetByID from cache. Misses for unknown ids
// are not cached, so seeding a badge takes effect on the next lookup.
type cachedBadgeRepository struct {
	next   BadgeRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedBadgeRepository decorates next with a catalog cache.
func NewCachedBadgeRepository(next BadgeRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) BadgeRepository {
	return &cachedBadgeRepository{next: next, cache: c, ttl: ttl, logger: logger}
}

func badgeCacheKey(badgeID string) string {
	return "badge:" + badgeID
}

func (r *cachedBadgeRepository) GetByID(ctx context.Context, badgeID string) (*models.Badge, error) {
	if raw, ok := r.cache.Get(ctx, badgeCacheKey(badgeID)); ok {
		var b models.Badge
		if err := json.Unmarshal(raw, &b); err == nil {
			return &b, nil
		}
		r.logger.Warn("Dropping undecodable cached badge", zap.String("badge_id", badgeID))
		r.Invalidate(ctx, badgeID)
	}

	badge, err := r.next.GetByID(ctx, badgeID)
	if err != nil || badge == nil {
		return badge, err
	}

	if raw, err := json.Marshal(badge); err == nil {
		if err := r.cache.Set(ctx, badgeCacheKey(badgeID), raw, r.ttl); err != nil {
			r.logger.Warn("Failed to cache badge", zap.String("badge_id", badgeID), zap.Error(err))
		}
	}
	return badge, nil
}

func (r *cachedBadgeRepository) List(ctx context.Context) ([]*models.Badge, error) {
	return r.next.List(ctx)
}

func (r *cachedBadgeRepository) Upsert(ctx context.Context, badge *models.Badge) error {
	if err := r.next.Upsert(ctx, badge); err != nil {
		return err
	}
	r.Invalidate(ctx, badge.BadgeID)
	return nil
}

func (r *cachedBadgeRepository) Invalidate(ctx context.Context, badgeID string) {
	if err := r.cache.Delete(ctx, badgeCacheKey(badgeID)); err != nil {
		r.logger.Warn("Failed to invalidate cached badge", zap.String("badge_id", badgeID), zap.Error(err))
	}
}
