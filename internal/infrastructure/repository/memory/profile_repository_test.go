package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	"github.com/sourcegraph/conc"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestProfileRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	attrs := profile.Attributes{Name: "홍길동", Region: "서울", Age: 30}

	t.Run("create starts at version one", func(t *testing.T) {
		repo := NewProfileRepository()
		repo.SetClock(fixedClock())

		created, err := repo.Create(ctx, "p-1", attrs)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.Version != 1 {
			t.Fatalf("expected version 1, got %d", created.Version)
		}
		if !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Fatalf("expected created and updated timestamps to match")
		}
	})

	t.Run("create rejects an existing id", func(t *testing.T) {
		repo := NewProfileRepository()
		if _, err := repo.Create(ctx, "p-1", attrs); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Create(ctx, "p-1", attrs); !errors.Is(err, profile.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})

	t.Run("get returns not found for missing id", func(t *testing.T) {
		repo := NewProfileRepository()
		if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update bumps the version on a matching expectation", func(t *testing.T) {
		repo := NewProfileRepository()
		if _, err := repo.Create(ctx, "p-1", attrs); err != nil {
			t.Fatalf("create: %v", err)
		}

		next := attrs
		next.Region = "부산"
		updated, err := repo.Update(ctx, "p-1", 1, next)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Version != 2 {
			t.Fatalf("expected version 2, got %d", updated.Version)
		}
		if updated.Region != "부산" {
			t.Fatalf("expected region replaced, got %q", updated.Region)
		}
	})

	t.Run("update rejects a stale version", func(t *testing.T) {
		repo := NewProfileRepository()
		if _, err := repo.Create(ctx, "p-1", attrs); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Update(ctx, "p-1", 1, attrs); err != nil {
			t.Fatalf("first update: %v", err)
		}
		if _, err := repo.Update(ctx, "p-1", 1, attrs); !errors.Is(err, profile.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("delete requires the current version", func(t *testing.T) {
		repo := NewProfileRepository()
		if _, err := repo.Create(ctx, "p-1", attrs); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.Delete(ctx, "p-1", 99); !errors.Is(err, profile.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
		if err := repo.Delete(ctx, "p-1", 1); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, "p-1"); !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestProfileRepository_ConcurrentUpdatesSameVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository()
	attrs := profile.Attributes{Name: "홍길동", Region: "서울"}

	if _, err := repo.Create(ctx, "p-1", attrs); err != nil {
		t.Fatalf("create: %v", err)
	}

	const writers = 16
	var wins, conflicts atomic.Int64

	var wg conc.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Go(func() {
			_, err := repo.Update(ctx, "p-1", 1, attrs)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, profile.ErrVersionConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
	if conflicts.Load() != writers-1 {
		t.Fatalf("expected %d conflicts, got %d", writers-1, conflicts.Load())
	}

	final, err := repo.GetByID(ctx, "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Version != 2 {
		t.Fatalf("expected final version 2, got %d", final.Version)
	}
}
