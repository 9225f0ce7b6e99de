package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/models"
	"github.com/google/uuid"
)

// ErrPlanNotFound is returned when no plan has the requested ID.
var ErrPlanNotFound = errors.New("plan not found")

// PlanStore persists saved plans. Both *DB (Postgres) and *SQLiteStore satisfy it.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (models.Plan, error)
	ListPlans(ctx context.Context, limit int) ([]models.Plan, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	Close()
}

// Compile-time checks.
var (
	_ PlanStore = (*DB)(nil)
	_ PlanStore = (*SQLiteStore)(nil)
)

// Open connects the configured backend. The "none" driver returns a nil store.
func Open(ctx context.Context, cfg config.StorageConfig, migrationsPath string) (PlanStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := cfg.Postgres.DSN()
		if err := RunMigrations(dsn, migrationsPath); err != nil {
			return nil, err
		}
		db, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// preparePlan assigns an ID when missing.
func preparePlan(plan models.Plan) models.Plan {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	return plan
}

const defaultListLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultListLimit {
		return defaultListLimit
	}
	return limit
}
