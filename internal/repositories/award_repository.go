package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"placehub/internal/database"
	"placehub/internal/models"
)

type awardRepository struct {
	*BaseRepository
}

// NewAwardRepository creates the Postgres backed award ledger store.
func NewAwardRepository(db *database.Manager, logger *zap.Logger) AwardRepository {
	return &awardRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// Grant relies on the (user_id, badge_id) primary key. A concurrent grant
// of the same pair blocks on the first transaction and then inserts
// nothing, so the counter moves exactly once.
func (r *awardRepository) Grant(ctx context.Context, userID int64, badgeID string, earnedAt time.Time) (bool, error) {
	var granted bool

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO user_badges (user_id, badge_id, earned_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, badge_id) DO NOTHING`,
			userID, badgeID, earnedAt,
		)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE badges
			SET total_awarded = total_awarded + 1, updated_at = NOW()
			WHERE badge_id = $1`,
			badgeID,
		); err != nil {
			return err
		}

		granted = true
		return nil
	})
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return false, ErrReferenceNotFound
		}
		r.GetLogger().Error("Failed to grant badge",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("badge_id", badgeID),
		)
		return false, fmt.Errorf("grant %s to user %d: %w", badgeID, userID, err)
	}

	return granted, nil
}

func (r *awardRepository) ListByUser(ctx context.Context, userID int64) ([]models.UserBadge, error) {
	rows, err := r.QueryContext(ctx, `
		SELECT user_id, badge_id, earned_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at, badge_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list badges for user %d: %w", userID, err)
	}
	defer rows.Close()

	awards := []models.UserBadge{}
	for rows.Next() {
		var ub models.UserBadge
		if err := rows.Scan(&ub.UserID, &ub.BadgeID, &ub.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan user badge: %w", err)
		}
		awards = append(awards, ub)
	}
	return awards, rows.Err()
}
