package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
)

// ProfileRepository is an in-process implementation with the same
// optimistic-concurrency semantics as the postgres repository. Used by tests
// and DB-less development runs.
type ProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]profile.Profile
	now      func() time.Time
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[string]profile.Profile),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source. Test helper.
func (r *ProfileRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *ProfileRepository) GetByID(_ context.Context, profileID string) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.profiles[profileID]
	if !ok {
		return profile.Profile{}, fmt.Errorf("%w: %s", profile.ErrNotFound, profileID)
	}
	return item, nil
}

func (r *ProfileRepository) Create(_ context.Context, profileID string, attrs profile.Attributes) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[profileID]; exists {
		return profile.Profile{}, fmt.Errorf("%w: %s", profile.ErrDuplicateKey, profileID)
	}

	now := r.now().UTC()
	created := profile.Profile{
		ID:         profileID,
		Attributes: attrs,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.profiles[profileID] = created

	return created, nil
}

func (r *ProfileRepository) Update(_ context.Context, profileID string, expectedVersion int64, attrs profile.Attributes) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.profiles[profileID]
	if !ok {
		return profile.Profile{}, fmt.Errorf("%w: %s", profile.ErrNotFound, profileID)
	}
	if current.Version != expectedVersion {
		return profile.Profile{}, fmt.Errorf("%w: %s", profile.ErrVersionConflict, profileID)
	}

	current.Attributes = attrs
	current.Version++
	current.UpdatedAt = r.now().UTC()
	r.profiles[profileID] = current

	return current, nil
}

func (r *ProfileRepository) Delete(_ context.Context, profileID string, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.profiles[profileID]
	if !ok {
		return fmt.Errorf("%w: %s", profile.ErrNotFound, profileID)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: %s", profile.ErrVersionConflict, profileID)
	}

	delete(r.profiles, profileID)
	return nil
}
