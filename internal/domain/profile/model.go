package profile

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	maxNameLen    = 6
	maxRegionLen  = 10
	maxCompanyLen = 10
	maxBioLen     = 128
	maxHobbiesLen = 10
	maxAge        = 200
)

// Attributes is the mutable portion of a profile. All operations replace the
// full attribute set; field-level merging is a caller concern.
type Attributes struct {
	Name      string
	Region    string
	Company   string
	Bio       string
	Hobbies   string
	Interests string
	Age       int
}

// Profile is the stored record. ID is opaque and immutable after creation.
// Version increments by exactly one per successful mutation and carries the
// optimistic-concurrency contract.
type Profile struct {
	ID string
	Attributes
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Attributes) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(a.Name) > maxNameLen {
		return fmt.Errorf("name must be at most %d characters", maxNameLen)
	}
	if !isKoreanOnly(a.Name) {
		return fmt.Errorf("name must contain only Korean characters and spaces")
	}

	if a.Region == "" {
		return fmt.Errorf("region is required")
	}
	if utf8.RuneCountInString(a.Region) > maxRegionLen {
		return fmt.Errorf("region must be at most %d characters", maxRegionLen)
	}
	if !isKoreanOnly(a.Region) {
		return fmt.Errorf("region must contain only Korean characters and spaces")
	}

	if a.Company != "" {
		if utf8.RuneCountInString(a.Company) > maxCompanyLen {
			return fmt.Errorf("company must be at most %d characters", maxCompanyLen)
		}
		if !isKoreanOnly(a.Company) {
			return fmt.Errorf("company must contain only Korean characters and spaces")
		}
	}

	if utf8.RuneCountInString(a.Bio) > maxBioLen {
		return fmt.Errorf("bio must be at most %d characters", maxBioLen)
	}

	if a.Hobbies != "" {
		if utf8.RuneCountInString(a.Hobbies) > maxHobbiesLen {
			return fmt.Errorf("hobbies must be at most %d characters", maxHobbiesLen)
		}
		if HasSpecialCharacters(a.Hobbies) {
			return fmt.Errorf("hobbies cannot contain special characters")
		}
	}

	if a.Age < 0 || a.Age > maxAge {
		return fmt.Errorf("age must be between 0 and %d", maxAge)
	}

	return nil
}
