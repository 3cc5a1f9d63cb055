package httpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
	"github.com/riskibarqy/user-profile-svc/internal/usecase"
)

// DBPinger reports whether the backing store is reachable.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	profileService   *usecase.ProfileService
	migrationService *usecase.MigrationService
	db               DBPinger
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	profileService *usecase.ProfileService,
	migrationService *usecase.MigrationService,
	db DBPinger,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		profileService:   profileService,
		migrationService: migrationService,
		db:               db,
		logger:           logger,
		validator:        newRequestValidator(),
	}
}

func newRequestValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("korean", func(fl validator.FieldLevel) bool {
		return profile.IsKoreanOnly(fl.Field().String())
	})
	_ = v.RegisterValidation("nospecial", func(fl validator.FieldLevel) bool {
		return !profile.HasSpecialCharacters(fl.Field().String())
	})
	return v
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type createProfileRequest struct {
	ProfileID string `json:"profile_id" validate:"omitempty,max=64"`
	Name      string `json:"name" validate:"required,max=6,korean"`
	Region    string `json:"region" validate:"required,max=10,korean"`
	Company   string `json:"company" validate:"omitempty,max=10,korean"`
	Bio       string `json:"bio" validate:"omitempty,max=128"`
	Hobbies   string `json:"hobbies" validate:"omitempty,max=10,nospecial"`
	Interests string `json:"interests"`
	Age       int    `json:"age" validate:"gte=0,lte=200"`
}

type updateProfileRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"required,gte=1"`
	Name            string `json:"name" validate:"required,max=6,korean"`
	Region          string `json:"region" validate:"required,max=10,korean"`
	Company         string `json:"company" validate:"omitempty,max=10,korean"`
	Bio             string `json:"bio" validate:"omitempty,max=128"`
	Hobbies         string `json:"hobbies" validate:"omitempty,max=10,nospecial"`
	Interests       string `json:"interests"`
	Age             int    `json:"age" validate:"gte=0,lte=200"`
}

type upsertProfileRequest struct {
	Name      string `json:"name" validate:"required,max=6,korean"`
	Region    string `json:"region" validate:"required,max=10,korean"`
	Company   string `json:"company" validate:"omitempty,max=10,korean"`
	Bio       string `json:"bio" validate:"omitempty,max=128"`
	Hobbies   string `json:"hobbies" validate:"omitempty,max=10,nospecial"`
	Interests string `json:"interests"`
	Age       int    `json:"age" validate:"gte=0,lte=200"`
}

type deleteProfileRequest struct {
	ExpectedVersion int64 `json:"expected_version" validate:"omitempty,gte=1"`
}

type profileDTO struct {
	ProfileID    string `json:"profile_id"`
	Name         string `json:"name"`
	Region       string `json:"region"`
	Company      string `json:"company,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Hobbies      string `json:"hobbies,omitempty"`
	Interests    string `json:"interests,omitempty"`
	Age          int    `json:"age,omitempty"`
	Version      int64  `json:"version"`
	CreatedAtUTC string `json:"created_at_utc"`
	UpdatedAtUTC string `json:"updated_at_utc"`
}

type schemaStatusDTO struct {
	CurrentRevision string `json:"current_revision"`
	HeadRevision    string `json:"head_revision"`
	UpToDate        bool   `json:"up_to_date"`
}

type appliedRevisionDTO struct {
	Revision     string `json:"revision"`
	Parent       string `json:"parent,omitempty"`
	Name         string `json:"name"`
	AppliedAtUTC string `json:"applied_at_utc"`
}

func profileToDTO(ctx context.Context, v profile.Profile) profileDTO {
	ctx, span := startSpan(ctx, "httpapi.profileToDTO")
	defer span.End()

	return profileDTO{
		ProfileID:    v.ID,
		Name:         v.Name,
		Region:       v.Region,
		Company:      v.Company,
		Bio:          v.Bio,
		Hobbies:      v.Hobbies,
		Interests:    v.Interests,
		Age:          v.Age,
		Version:      v.Version,
		CreatedAtUTC: v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC: v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func appliedRevisionToDTO(v migration.AppliedRevision) appliedRevisionDTO {
	return appliedRevisionDTO{
		Revision:     v.Revision,
		Parent:       v.Parent,
		Name:         v.Name,
		AppliedAtUTC: v.AppliedAt.UTC().Format(time.RFC3339),
	}
}
