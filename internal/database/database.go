package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"go.uber.org/zap"

	"placehub/internal/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Open connects to the database and, when cfg.Database.AutoMigrate is set,
// applies pending migrations before returning.
func Open(ctx context.Context, cfg *config.Config, metrics *Metrics, logger *zap.Logger) (*Manager, error) {
	logger.Info("Starting database initialization",
		zap.String("environment", cfg.Server.Environment))

	manager, err := NewManager(ctx, &cfg.Database, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := manager.Migrate(); err != nil {
			manager.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	if status := manager.Health(ctx); !status.IsHealthy() {
		manager.Close()
		return nil, fmt.Errorf("database unhealthy after startup: %s", status.Error)
	}

	return manager, nil
}

// ExecuteTransaction runs fn in a transaction. fn's error or panic rolls it
// back; otherwise it commits.
func (m *Manager) ExecuteTransaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := m.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
