package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"placehub/internal/models"
	"placehub/internal/repositories"
	"placehub/internal/validation"
)

// SeedCatalog validates defs and upserts each one. Award counters of
// existing entries are left untouched.
func SeedCatalog(ctx context.Context, repo repositories.BadgeRepository, defs []models.Badge, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := validation.ValidateEach(defs, func(b models.Badge) string { return b.BadgeID }); err != nil {
		return NewValidationError("invalid badge catalog", err)
	}

	seen := make(map[string]bool, len(defs))
	for i := range defs {
		def := defs[i]
		if seen[def.BadgeID] {
			return NewValidationError(fmt.Sprintf("duplicate badge id %q", def.BadgeID), nil)
		}
		seen[def.BadgeID] = true

		if err := repo.Upsert(ctx, &def); err != nil {
			return fmt.Errorf("seed badge %s: %w", def.BadgeID, err)
		}
	}

	logger.Info("Badge catalog seeded", zap.Int("badges", len(defs)))
	return nil
}
