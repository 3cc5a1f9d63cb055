package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	idgen "github.com/riskibarqy/user-profile-svc/internal/platform/id"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
)

// ProfileInput carries the attribute set for create, update, and upsert
// requests. ProfileID is optional on create; when empty a random opaque ID is
// assigned.
type ProfileInput struct {
	ProfileID string
	Name      string
	Region    string
	Company   string
	Bio       string
	Hobbies   string
	Interests string
	Age       int
}

func (in ProfileInput) attributes() profile.Attributes {
	return profile.Attributes{
		Name:      strings.TrimSpace(in.Name),
		Region:    strings.TrimSpace(in.Region),
		Company:   strings.TrimSpace(in.Company),
		Bio:       strings.TrimSpace(in.Bio),
		Hobbies:   strings.TrimSpace(in.Hobbies),
		Interests: strings.TrimSpace(in.Interests),
		Age:       in.Age,
	}
}

// EventPublisher receives committed profile change events. Delivery is
// best-effort; failures never affect the mutation outcome.
type EventPublisher interface {
	Publish(ctx context.Context, event profile.ChangeEvent) error
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, profile.ChangeEvent) error { return nil }

// ProfileService composes the repository with validation and owns the retry
// policy for benign optimistic-concurrency races. The repository itself never
// retries; callers needing strict optimistic semantics use it directly.
type ProfileService struct {
	repo             profile.Repository
	ids              idgen.Generator
	publisher        EventPublisher
	conflictAttempts int
	logger           *logging.Logger
	now              func() time.Time
}

func NewProfileService(
	repo profile.Repository,
	ids idgen.Generator,
	publisher EventPublisher,
	conflictAttempts int,
	logger *logging.Logger,
) *ProfileService {
	if publisher == nil {
		publisher = noopEventPublisher{}
	}
	if conflictAttempts < 1 {
		conflictAttempts = defaultConflictAttempts
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ProfileService{
		repo:             repo,
		ids:              ids,
		publisher:        publisher,
		conflictAttempts: conflictAttempts,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *ProfileService) Get(ctx context.Context, profileID string) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Get")
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return profile.Profile{}, fmt.Errorf("%w: profile_id is required", ErrInvalidInput)
	}

	return s.repo.GetByID(ctx, profileID)
}

func (s *ProfileService) Create(ctx context.Context, input ProfileInput) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Create")
	defer span.End()

	attrs := input.attributes()
	if err := attrs.Validate(); err != nil {
		return profile.Profile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	profileID := strings.TrimSpace(input.ProfileID)
	if profileID == "" {
		generated, err := s.ids.NewID()
		if err != nil {
			return profile.Profile{}, fmt.Errorf("generate profile id: %w", err)
		}
		profileID = generated
	}

	created, err := s.repo.Create(ctx, profileID, attrs)
	if err != nil {
		return profile.Profile{}, err
	}

	s.publish(ctx, profile.ChangeEvent{
		ProfileID:  created.ID,
		Kind:       profile.ChangeCreated,
		Version:    created.Version,
		OccurredAt: s.now().UTC(),
	})

	return created, nil
}

func (s *ProfileService) Update(ctx context.Context, profileID string, expectedVersion int64, input ProfileInput) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Update")
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return profile.Profile{}, fmt.Errorf("%w: profile_id is required", ErrInvalidInput)
	}
	if expectedVersion < 1 {
		return profile.Profile{}, fmt.Errorf("%w: expected_version must be >= 1", ErrInvalidInput)
	}

	attrs := input.attributes()
	if err := attrs.Validate(); err != nil {
		return profile.Profile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.repo.Update(ctx, profileID, expectedVersion, attrs)
	if err != nil {
		return profile.Profile{}, err
	}

	s.publish(ctx, profile.ChangeEvent{
		ProfileID:  updated.ID,
		Kind:       profile.ChangeUpdated,
		Version:    updated.Version,
		OccurredAt: s.now().UTC(),
	})

	return updated, nil
}

func (s *ProfileService) Delete(ctx context.Context, profileID string, expectedVersion int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Delete")
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return fmt.Errorf("%w: profile_id is required", ErrInvalidInput)
	}
	if expectedVersion < 1 {
		return fmt.Errorf("%w: expected_version must be >= 1", ErrInvalidInput)
	}

	if err := s.repo.Delete(ctx, profileID, expectedVersion); err != nil {
		return err
	}

	s.publish(ctx, profile.ChangeEvent{
		ProfileID:  profileID,
		Kind:       profile.ChangeDeleted,
		Version:    expectedVersion,
		OccurredAt: s.now().UTC(),
	})

	return nil
}

// Upsert creates the profile when absent, otherwise reads the current version
// and updates with it. A concurrent create, update, or delete between the
// read and the write surfaces as a version conflict and is retried up to the
// configured bound.
func (s *ProfileService) Upsert(ctx context.Context, profileID string, input ProfileInput) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Upsert")
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return profile.Profile{}, fmt.Errorf("%w: profile_id is required", ErrInvalidInput)
	}

	attrs := input.attributes()
	if err := attrs.Validate(); err != nil {
		return profile.Profile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var out profile.Profile
	var kind profile.ChangeKind

	err := retryOnConflict(ctx, s.conflictAttempts, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, profileID)
		switch {
		case errors.Is(err, profile.ErrNotFound):
			created, createErr := s.repo.Create(ctx, profileID, attrs)
			if createErr == nil {
				out, kind = created, profile.ChangeCreated
				return nil
			}
			if errors.Is(createErr, profile.ErrDuplicateKey) {
				return fmt.Errorf("%w: profile %s was created concurrently", profile.ErrVersionConflict, profileID)
			}
			return createErr
		case err != nil:
			return err
		}

		updated, updateErr := s.repo.Update(ctx, profileID, existing.Version, attrs)
		if updateErr == nil {
			out, kind = updated, profile.ChangeUpdated
			return nil
		}
		if errors.Is(updateErr, profile.ErrNotFound) {
			return fmt.Errorf("%w: profile %s was deleted concurrently", profile.ErrVersionConflict, profileID)
		}
		return updateErr
	})
	if err != nil {
		return profile.Profile{}, err
	}

	s.publish(ctx, profile.ChangeEvent{
		ProfileID:  out.ID,
		Kind:       kind,
		Version:    out.Version,
		OccurredAt: s.now().UTC(),
	})

	return out, nil
}

// Remove reads the current version and deletes with it, retrying benign
// races the same way Upsert does. A missing profile surfaces as
// profile.ErrNotFound.
func (s *ProfileService) Remove(ctx context.Context, profileID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Remove")
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return fmt.Errorf("%w: profile_id is required", ErrInvalidInput)
	}

	var removedVersion int64
	err := retryOnConflict(ctx, s.conflictAttempts, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, profileID)
		if err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, profileID, existing.Version); err != nil {
			return err
		}
		removedVersion = existing.Version
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, profile.ChangeEvent{
		ProfileID:  profileID,
		Kind:       profile.ChangeDeleted,
		Version:    removedVersion,
		OccurredAt: s.now().UTC(),
	})

	return nil
}

func (s *ProfileService) publish(ctx context.Context, event profile.ChangeEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish profile change event failed",
			"profile_id", event.ProfileID, "kind", string(event.Kind), "error", err)
	}
}
