package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
)

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("returns on first success", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, 3, func(context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("retries only version conflicts", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, 3, func(context.Context) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("%w: busy", profile.ErrVersionConflict)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("other errors pass through immediately", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, 3, func(context.Context) error {
			calls++
			return profile.ErrNotFound
		})
		if !errors.Is(err, profile.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("exhaustion wraps the last conflict", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, 2, func(context.Context) error {
			calls++
			return fmt.Errorf("%w: busy", profile.ErrVersionConflict)
		})
		if !errors.Is(err, profile.ErrConcurrencyExhausted) {
			t.Fatalf("expected ErrConcurrencyExhausted, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		calls := 0
		err := retryOnConflict(cancelled, 3, func(context.Context) error {
			calls++
			return fmt.Errorf("%w: busy", profile.ErrVersionConflict)
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 0 {
			t.Fatalf("expected 0 calls, got %d", calls)
		}
	})
}
