package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isUnavailable classifies transport-level failures reaching the store:
// driver connection errors and the postgres connection/shutdown error
// classes (08, 53, 57).
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return true
		}
	}
	return false
}

// classifyStorageErr wraps transport failures with ErrStorageUnavailable so
// callers can tell "could not reach storage" apart from domain outcomes.
func classifyStorageErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %v", profile.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
