// file: internal/services/service_collection.go
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"placehub/internal/badges"
	"placehub/internal/config"
	"placehub/internal/events"
	"placehub/internal/monitoring"
	"placehub/internal/repositories"
)

// ServiceCollection wires the badge engine together.
type ServiceCollection struct {
	Badges BadgeService
	Ledger AwardLedger

	Repositories *repositories.Collection
	EventBus     events.EventBus
	Logger       *zap.Logger
}

// NewServiceCollection builds the ledger and orchestrator and subscribes the
// orchestrator to bus. metrics may be nil.
func NewServiceCollection(
	repos *repositories.Collection,
	bus events.EventBus,
	cfg *config.Config,
	metrics *monitoring.BadgeMetrics,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if repos == nil {
		return nil, fmt.Errorf("repository collection is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ledger := NewAwardLedger(repos.Badge, repos.User, repos.Award, bus, metrics, logger.Named("ledger"))
	svc := NewBadgeService(repos, ledger, badges.NewRuleSet(cfg.Badges), metrics, logger.Named("badges"))

	if err := RegisterTriggers(bus, svc); err != nil {
		return nil, fmt.Errorf("failed to register badge triggers: %w", err)
	}

	logger.Info("Service collection initialized",
		zap.String("timezone", cfg.Badges.Timezone),
		zap.String("streak_weekday", cfg.Badges.StreakWeekday),
	)

	return &ServiceCollection{
		Badges:       svc,
		Ledger:       ledger,
		Repositories: repos,
		EventBus:     bus,
		Logger:       logger,
	}, nil
}

// Initialize seeds the badge catalog. Call once at startup, after
// migrations.
func (c *ServiceCollection) Initialize(ctx context.Context) error {
	return SeedCatalog(ctx, c.Repositories.Badge, badges.Definitions(), c.Logger)
}
