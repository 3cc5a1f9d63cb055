package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
)

const defaultConflictAttempts = 3

// retryOnConflict runs fn up to attempts times, retrying only when it fails
// with profile.ErrVersionConflict. Every other error, including context
// cancellation, returns immediately. Exhausting the budget returns
// profile.ErrConcurrencyExhausted wrapping the last conflict.
func retryOnConflict(ctx context.Context, attempts int, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil || !errors.Is(lastErr, profile.ErrVersionConflict) {
			return lastErr
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", profile.ErrConcurrencyExhausted, attempts, lastErr)
}
