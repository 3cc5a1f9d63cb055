package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	qb "github.com/riskibarqy/user-profile-svc/internal/platform/querybuilder"
)

const profileColumns = "id, public_id, name, region, company, bio, hobbies, interests, age, version, created_at, updated_at, deleted_at"

// ProfileRepository persists profiles in the user_profiles table. Optimistic
// concurrency rides on the version column: every mutation is a single
// conditional statement, so the compare and the write commit together.
type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, profileID string) (profile.Profile, error) {
	query, args, err := qb.Select(profileColumns).
		From("user_profiles").
		Where(
			qb.Eq("public_id", profileID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("build get profile query: %w", err)
	}

	var row profileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, fmt.Errorf("%w: %s", profile.ErrNotFound, profileID)
		}
		return profile.Profile{}, classifyStorageErr("get profile", err)
	}

	return profileFromRow(row), nil
}

func (r *ProfileRepository) Create(ctx context.Context, profileID string, attrs profile.Attributes) (profile.Profile, error) {
	insertModel := profileInsertModel{
		PublicID:  strings.TrimSpace(profileID),
		Name:      strings.TrimSpace(attrs.Name),
		Region:    strings.TrimSpace(attrs.Region),
		Company:   optionalString(attrs.Company),
		Bio:       optionalString(attrs.Bio),
		Hobbies:   optionalString(attrs.Hobbies),
		Interests: optionalString(attrs.Interests),
		Age:       optionalAge(attrs.Age),
	}

	query, args, err := qb.InsertModel("user_profiles", insertModel, "RETURNING "+profileColumns)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("build create profile query: %w", err)
	}

	var row profileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err) {
			return profile.Profile{}, fmt.Errorf("%w: %s", profile.ErrDuplicateKey, profileID)
		}
		return profile.Profile{}, classifyStorageErr("create profile", err)
	}

	return profileFromRow(row), nil
}

func (r *ProfileRepository) Update(ctx context.Context, profileID string, expectedVersion int64, attrs profile.Attributes) (profile.Profile, error) {
	query, args, err := qb.Update("user_profiles").
		Set("name", strings.TrimSpace(attrs.Name)).
		Set("region", strings.TrimSpace(attrs.Region)).
		Set("company", optionalString(attrs.Company)).
		Set("bio", optionalString(attrs.Bio)).
		Set("hobbies", optionalString(attrs.Hobbies)).
		Set("interests", optionalString(attrs.Interests)).
		Set("age", optionalAge(attrs.Age)).
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("public_id", profileID),
			qb.Eq("version", expectedVersion),
			qb.IsNull("deleted_at"),
		).
		Suffix("RETURNING " + profileColumns).
		ToSQL()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("build update profile query: %w", err)
	}

	var row profileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			// The conditional write matched nothing; the record either does
			// not exist or carries a different version.
			return profile.Profile{}, r.conflictOrMissing(ctx, profileID)
		}
		return profile.Profile{}, classifyStorageErr("update profile", err)
	}

	return profileFromRow(row), nil
}

func (r *ProfileRepository) Delete(ctx context.Context, profileID string, expectedVersion int64) error {
	query, args, err := qb.Update("user_profiles").
		SetExpr("deleted_at", "now()").
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("public_id", profileID),
			qb.Eq("version", expectedVersion),
			qb.IsNull("deleted_at"),
		).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete profile query: %w", err)
	}

	var rowID int64
	if err := r.db.GetContext(ctx, &rowID, query, args...); err != nil {
		if isNotFound(err) {
			return r.conflictOrMissing(ctx, profileID)
		}
		return classifyStorageErr("delete profile", err)
	}

	return nil
}

// conflictOrMissing decides why a conditional write matched zero rows. The
// write already did not happen, so this read needs no atomicity with it.
func (r *ProfileRepository) conflictOrMissing(ctx context.Context, profileID string) error {
	if _, err := r.GetByID(ctx, profileID); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", profile.ErrVersionConflict, profileID)
}
