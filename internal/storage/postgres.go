package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/runplan/internal/models"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool.Pool and stores plans in PostgreSQL.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

const planColumns = `id, name, model_type, target_mileage, starting_mileage, a_parameter, b_parameter, notes, created_at`

// CreatePlan inserts a plan and returns it with ID and creation time set.
func (db *DB) CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	plan = preparePlan(plan)
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO plans (id, name, model_type, target_mileage, starting_mileage, a_parameter, b_parameter, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at`,
		plan.ID, plan.Name, plan.Model, plan.Target, plan.Starting, plan.A, plan.B, plan.Notes,
	).Scan(&plan.CreatedAt)
	if err != nil {
		return models.Plan{}, fmt.Errorf("inserting plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns a single plan by ID.
func (db *DB) GetPlan(ctx context.Context, id uuid.UUID) (models.Plan, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	plan, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Plan{}, ErrPlanNotFound
	}
	if err != nil {
		return models.Plan{}, fmt.Errorf("querying plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns the most recently created plans first.
func (db *DB) ListPlans(ctx context.Context, limit int) ([]models.Plan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan. Deleting an unknown ID returns ErrPlanNotFound.
func (db *DB) DeletePlan(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func scanPlan(row pgx.Row) (models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.Name, &p.Model, &p.Target, &p.Starting, &p.A, &p.B, &p.Notes, &p.CreatedAt)
	return p, err
}
