package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"placehub/internal/database"
	"placehub/internal/models"
)

type badgeRepository struct {
	*BaseRepository
}

// NewBadgeRepository creates the Postgres backed catalog repository.
func NewBadgeRepository(db *database.Manager, logger *zap.Logger) BadgeRepository {
	return &badgeRepository{BaseRepository: NewBaseRepository(db, logger)}
}

const badgeColumns = `badge_id, name, description, category, tier, total_awarded, created_at, updated_at`

func scanBadge(scanner interface{ Scan(...interface{}) error }) (*models.Badge, error) {
	b := &models.Badge{}
	err := scanner.Scan(&b.BadgeID, &b.Name, &b.Description, &b.Category, &b.Tier,
		&b.TotalAwarded, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *badgeRepository) GetByID(ctx context.Context, badgeID string) (*models.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE badge_id = $1`

	badge, err := scanBadge(r.QueryRowContext(ctx, query, badgeID))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		r.GetLogger().Error("Failed to get badge", zap.Error(err), zap.String("badge_id", badgeID))
		return nil, fmt.Errorf("get badge %s: %w", badgeID, err)
	}
	return badge, nil
}

func (r *badgeRepository) List(ctx context.Context) ([]*models.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges ORDER BY category, badge_id`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var badges []*models.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (r *badgeRepository) Upsert(ctx context.Context, badge *models.Badge) error {
	query := `
		INSERT INTO badges (badge_id, name, description, category, tier)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (badge_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			tier = EXCLUDED.tier,
			updated_at = NOW()
		RETURNING total_awarded, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		badge.BadgeID, badge.Name, badge.Description, badge.Category, badge.Tier,
	).Scan(&badge.TotalAwarded, &badge.CreatedAt, &badge.UpdatedAt)
	if err != nil {
		r.GetLogger().Error("Failed to upsert badge", zap.Error(err), zap.String("badge_id", badge.BadgeID))
		return fmt.Errorf("upsert badge %s: %w", badge.BadgeID, err)
	}
	return nil
}
