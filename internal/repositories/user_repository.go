// file: internal/repositories/user_repository.go
package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"placehub/internal/database"
	"placehub/internal/models"
)

type userRepository struct {
	*BaseRepository
	awards AwardRepository
}

// NewUserRepository creates a user repository. Badges are loaded through
// awards so the ordering matches the ledger.
func NewUserRepository(db *database.Manager, awards AwardRepository, logger *zap.Logger) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db, logger),
		awards:         awards,
	}
}

// GetByID retrieves a user with their badges ordered by earn time.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := r.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		r.GetLogger().Error("Failed to get user by ID",
			zap.Error(err),
			zap.Int64("user_id", id),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	badges, err := r.awards.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Badges = badges

	return user, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return exists, nil
}
