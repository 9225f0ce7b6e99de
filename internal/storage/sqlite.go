package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/runplan/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// sqliteTimeFormat is fixed-width so created_at sorts correctly as text.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps plans in a local SQLite file. Used for single-node deployments
// and the CLI.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS plans (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		model_type       TEXT NOT NULL,
		target_mileage   REAL NOT NULL,
		starting_mileage REAL NOT NULL,
		a_parameter      REAL NOT NULL,
		b_parameter      REAL NOT NULL,
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating plans table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// CreatePlan inserts a plan and returns it with ID and creation time set.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	plan = preparePlan(plan)
	plan.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plans (id, name, model_type, target_mileage, starting_mileage, a_parameter, b_parameter, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID.String(), plan.Name, plan.Model, plan.Target, plan.Starting, plan.A, plan.B, plan.Notes,
		plan.CreatedAt.Format(sqliteTimeFormat),
	)
	if err != nil {
		return models.Plan{}, fmt.Errorf("inserting plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns a single plan by ID.
func (s *SQLiteStore) GetPlan(ctx context.Context, id uuid.UUID) (models.Plan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id.String())
	plan, err := scanSQLitePlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Plan{}, ErrPlanNotFound
	}
	if err != nil {
		return models.Plan{}, fmt.Errorf("querying plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns the most recently created plans first.
func (s *SQLiteStore) ListPlans(ctx context.Context, limit int) ([]models.Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM plans ORDER BY created_at DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		plan, err := scanSQLitePlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan. Deleting an unknown ID returns ErrPlanNotFound.
func (s *SQLiteStore) DeletePlan(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePlan(row rowScanner) (models.Plan, error) {
	var (
		p         models.Plan
		id        string
		createdAt string
	)
	if err := row.Scan(&id, &p.Name, &p.Model, &p.Target, &p.Starting, &p.A, &p.B, &p.Notes, &createdAt); err != nil {
		return models.Plan{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return models.Plan{}, fmt.Errorf("parsing plan id %q: %w", id, err)
	}
	p.ID = parsed
	p.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt)
	if err != nil {
		return models.Plan{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return p, nil
}
