package profile

import "context"

// Repository describes profile persistence needs from use cases.
//
// Update and Delete compare expectedVersion against the stored version
// atomically with the write; a mismatch yields ErrVersionConflict and no
// mutation. Create is atomic with respect to concurrent creates on the same
// ID; a collision yields ErrDuplicateKey. Implementations never retry.
type Repository interface {
	GetByID(ctx context.Context, profileID string) (Profile, error)
	Create(ctx context.Context, profileID string, attrs Attributes) (Profile, error)
	Update(ctx context.Context, profileID string, expectedVersion int64, attrs Attributes) (Profile, error)
	Delete(ctx context.Context, profileID string, expectedVersion int64) error
}
