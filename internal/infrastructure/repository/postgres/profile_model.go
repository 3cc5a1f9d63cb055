package postgres

import (
	"database/sql"
	"strings"
	"time"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
)

type profileTableModel struct {
	ID        int64          `db:"id"`
	PublicID  string         `db:"public_id"`
	Name      string         `db:"name"`
	Region    string         `db:"region"`
	Company   sql.NullString `db:"company"`
	Bio       sql.NullString `db:"bio"`
	Hobbies   sql.NullString `db:"hobbies"`
	Interests sql.NullString `db:"interests"`
	Age       sql.NullInt64  `db:"age"`
	Version   int64          `db:"version"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	DeletedAt *time.Time     `db:"deleted_at"`
}

type profileInsertModel struct {
	PublicID  string  `db:"public_id"`
	Name      string  `db:"name"`
	Region    string  `db:"region"`
	Company   *string `db:"company"`
	Bio       *string `db:"bio"`
	Hobbies   *string `db:"hobbies"`
	Interests *string `db:"interests"`
	Age       *int64  `db:"age"`
}

func profileFromRow(row profileTableModel) profile.Profile {
	return profile.Profile{
		ID: row.PublicID,
		Attributes: profile.Attributes{
			Name:      row.Name,
			Region:    row.Region,
			Company:   row.Company.String,
			Bio:       row.Bio.String,
			Hobbies:   row.Hobbies.String,
			Interests: row.Interests.String,
			Age:       int(row.Age.Int64),
		},
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalAge(age int) *int64 {
	if age <= 0 {
		return nil
	}
	v := int64(age)
	return &v
}
