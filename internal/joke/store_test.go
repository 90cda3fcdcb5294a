package joke

import (
	"context"
	"errors"
	"testing"

	"github.com/eleven-am/knock-line/internal/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func setupTestStore(t *testing.T) *Store {
	store := NewStore(setupTestDB(t), DefaultRating)
	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func TestNewStore_DefaultRating(t *testing.T) {
	store := NewStore(setupTestDB(t), 0)
	if store.initialRating != DefaultRating {
		t.Errorf("initialRating = %v, want %v", store.initialRating, DefaultRating)
	}
}

func TestStore_Create(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	j, err := store.Create(ctx, "Knock knock. Who's there? Lettuce. Lettuce who? Lettuce in!")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if j.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if j.Rating != DefaultRating {
		t.Errorf("Rating = %v, want %v", j.Rating, DefaultRating)
	}
	if j.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	found, err := store.FindByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Content != j.Content {
		t.Errorf("Content = %q, want %q", found.Content, j.Content)
	}
}

func TestStore_FindByID_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.FindByID(context.Background(), 42)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateRating(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	j, _ := store.Create(ctx, "joke")
	if err := store.UpdateRating(ctx, j.ID, 1516); err != nil {
		t.Fatalf("UpdateRating() error = %v", err)
	}

	found, _ := store.FindByID(ctx, j.ID)
	if found.Rating != 1516 {
		t.Errorf("Rating = %v, want 1516", found.Rating)
	}

	if err := store.UpdateRating(ctx, 999, 1400); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing joke, got %v", err)
	}
}

func TestStore_SampleForComparison(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ratings := []float64{1400, 1600, 1500, 1700, 1550, 1450}
	ids := make([]uint, len(ratings))
	for i, r := range ratings {
		j, err := store.Create(ctx, "joke")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids[i] = j.ID
		if err := store.UpdateRating(ctx, j.ID, r); err != nil {
			t.Fatalf("UpdateRating() error = %v", err)
		}
	}

	sample, err := store.SampleForComparison(ctx, 3)
	if err != nil {
		t.Fatalf("SampleForComparison() error = %v", err)
	}
	want := []float64{1700, 1600, 1550}
	if len(sample) != len(want) {
		t.Fatalf("len(sample) = %d, want %d", len(sample), len(want))
	}
	for i, j := range sample {
		if j.Rating != want[i] {
			t.Errorf("sample[%d].Rating = %v, want %v", i, j.Rating, want[i])
		}
	}

	excluded, err := store.SampleForComparison(ctx, 10, ids[3])
	if err != nil {
		t.Fatalf("SampleForComparison() error = %v", err)
	}
	if len(excluded) != len(ratings)-1 {
		t.Errorf("len(excluded) = %d, want %d", len(excluded), len(ratings)-1)
	}
	for _, j := range excluded {
		if j.ID == ids[3] {
			t.Error("excluded joke returned in sample")
		}
	}

	none, err := store.SampleForComparison(ctx, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("SampleForComparison(0) = %v, %v; want empty", none, err)
	}
}

func TestStore_SampleForComparison_Empty(t *testing.T) {
	store := setupTestStore(t)

	sample, err := store.SampleForComparison(context.Background(), 5)
	if err != nil {
		t.Fatalf("SampleForComparison() error = %v", err)
	}
	if len(sample) != 0 {
		t.Errorf("expected empty sample, got %d", len(sample))
	}
}

func TestStore_Best(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Best(ctx); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound on empty store, got %v", err)
	}

	low, _ := store.Create(ctx, "low")
	high, _ := store.Create(ctx, "high")
	_ = store.UpdateRating(ctx, low.ID, 1420)
	_ = store.UpdateRating(ctx, high.ID, 1580)

	best, err := store.Best(ctx)
	if err != nil {
		t.Fatalf("Best() error = %v", err)
	}
	if best.ID != high.ID {
		t.Errorf("Best().ID = %d, want %d", best.ID, high.ID)
	}
}

func TestStore_Count(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = store.Create(ctx, "joke")
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}
