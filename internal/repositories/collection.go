// file: internal/repositories/collection.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"placehub/internal/cache"
	"placehub/internal/database"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	User     UserRepository
	Badge    BadgeRepository
	Award    AwardRepository
	Activity ActivityRepository

	db     *database.Manager
	logger *zap.Logger
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	// Cache backs badge catalog lookups. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger, config *RepositoryConfig) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		config = &RepositoryConfig{}
	}

	awards := NewAwardRepository(db, logger)

	var badges BadgeRepository = NewBadgeRepository(db, logger)
	if config.Cache != nil {
		ttl := config.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		badges = NewCachedBadgeRepository(badges, config.Cache, ttl, logger)
	}

	collection := &Collection{
		User:     NewUserRepository(db, awards, logger),
		Badge:    badges,
		Award:    awards,
		Activity: NewActivityRepository(db, logger),
		db:       db,
		logger:   logger,
	}

	logger.Info("Repository collection initialized successfully",
		zap.Bool("catalog_cache", config.Cache != nil),
	)

	return collection, nil
}

// HealthCheck reports database connectivity for the health endpoint.
func (c *Collection) HealthCheck(ctx context.Context) *database.HealthStatus {
	return c.db.Health(ctx)
}
