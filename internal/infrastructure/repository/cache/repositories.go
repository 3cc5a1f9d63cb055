package cache

import (
	"context"
	"errors"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	basecache "github.com/riskibarqy/user-profile-svc/internal/platform/cache"
)

// ProfileRepository is a read-through decorator over a profile.Repository.
// Only GetByID is cached; every mutation flows to the next repository and
// invalidates the entry, so readers never observe a version older than the
// one a successful write returned to its caller on this instance.
type ProfileRepository struct {
	next  profile.Repository
	cache *basecache.Store
}

func NewProfileRepository(next profile.Repository, cache *basecache.Store) *ProfileRepository {
	return &ProfileRepository{next: next, cache: cache}
}

func profileKey(profileID string) string {
	return "profile:id:" + profileID
}

func (r *ProfileRepository) GetByID(ctx context.Context, profileID string) (profile.Profile, error) {
	v, err := r.cache.GetOrLoad(ctx, profileKey(profileID), func(ctx context.Context) (any, error) {
		item, err := r.next.GetByID(ctx, profileID)
		if err != nil {
			return nil, err
		}
		return item, nil
	})
	if err != nil {
		return profile.Profile{}, err
	}

	item, _ := v.(profile.Profile)
	return item, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profileID string, attrs profile.Attributes) (profile.Profile, error) {
	created, err := r.next.Create(ctx, profileID, attrs)
	if err != nil {
		return profile.Profile{}, err
	}
	r.cache.Delete(ctx, profileKey(profileID))
	return created, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profileID string, expectedVersion int64, attrs profile.Attributes) (profile.Profile, error) {
	updated, err := r.next.Update(ctx, profileID, expectedVersion, attrs)
	if err != nil {
		// A conflict means the cached version is behind whatever won; drop it
		// so the caller's retry reads fresh state.
		if errors.Is(err, profile.ErrVersionConflict) {
			r.cache.Delete(ctx, profileKey(profileID))
		}
		return profile.Profile{}, err
	}
	r.cache.Delete(ctx, profileKey(profileID))
	return updated, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, profileID string, expectedVersion int64) error {
	if err := r.next.Delete(ctx, profileID, expectedVersion); err != nil {
		if errors.Is(err, profile.ErrVersionConflict) {
			r.cache.Delete(ctx, profileKey(profileID))
		}
		return err
	}
	r.cache.Delete(ctx, profileKey(profileID))
	return nil
}
