package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/models"
	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "plans", "runplan.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// TestSQLiteCreateAndGet verifies that a created plan round-trips with an assigned ID.
func TestSQLiteCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePlan(ctx, models.Plan{
		Name: "base build", Model: "linear", Target: 50, Starting: 10, A: 2, B: 1, Notes: "spring",
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("CreatePlan did not assign an ID")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("CreatePlan did not set created_at")
	}

	got, err := s.GetPlan(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Name != "base build" || got.Model != "linear" || got.Target != 50 || got.Starting != 10 || got.A != 2 || got.B != 1 {
		t.Errorf("GetPlan = %+v, want stored values", got)
	}
	if got.Notes != "spring" {
		t.Errorf("notes = %q, want spring", got.Notes)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
	if _, err := got.Build(); err != nil {
		t.Errorf("stored plan no longer builds: %v", err)
	}
}

// TestSQLiteKeepsProvidedID verifies that a caller-chosen ID is preserved.
func TestSQLiteKeepsProvidedID(t *testing.T) {
	s := openTestStore(t)
	id := uuid.New()
	created, err := s.CreatePlan(context.Background(), models.Plan{
		ID: id, Name: "x", Model: "exponential", Target: 50, Starting: 10, A: 0.8, B: 4,
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if created.ID != id {
		t.Errorf("id = %s, want %s", created.ID, id)
	}
}

// TestSQLiteGetMissing verifies ErrPlanNotFound for unknown IDs.
func TestSQLiteGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetPlan(context.Background(), uuid.New())
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("GetPlan error = %v, want ErrPlanNotFound", err)
	}
}

// TestSQLiteListAndDelete verifies listing and deletion, including deleting twice.
func TestSQLiteListAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids := map[uuid.UUID]bool{}
	for _, name := range []string{"a", "b", "c"} {
		p, err := s.CreatePlan(ctx, models.Plan{Name: name, Model: "linear", Target: 40, Starting: 5, A: 1, B: 1})
		if err != nil {
			t.Fatalf("CreatePlan: %v", err)
		}
		ids[p.ID] = true
	}

	plans, err := s.ListPlans(ctx, 0)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("len(plans) = %d, want 3", len(plans))
	}
	for _, p := range plans {
		if !ids[p.ID] {
			t.Errorf("unexpected plan %s", p.ID)
		}
	}

	limited, err := s.ListPlans(ctx, 2)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}

	victim := plans[0].ID
	if err := s.DeletePlan(ctx, victim); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if err := s.DeletePlan(ctx, victim); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("second DeletePlan error = %v, want ErrPlanNotFound", err)
	}
	plans, _ = s.ListPlans(ctx, 0)
	if len(plans) != 2 {
		t.Errorf("len(plans) after delete = %d, want 2", len(plans))
	}
}

// TestOpenNoneDriver verifies that the none driver yields no store and no error.
func TestOpenNoneDriver(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{Driver: config.DriverNone}, "migrations")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store != nil {
		t.Errorf("store = %v, want nil", store)
	}
}

// TestOpenSQLiteDriver verifies that Open selects the SQLite backend.
func TestOpenSQLiteDriver(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "open.db"),
	}, "migrations")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Errorf("store type = %T, want *SQLiteStore", store)
	}
}
