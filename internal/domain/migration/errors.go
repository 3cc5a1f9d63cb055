package migration

import "errors"

var (
	// ErrUnknownRevision is returned when a plan target is not part of the
	// loaded step chain.
	ErrUnknownRevision = errors.New("unknown schema revision")
	// ErrDivergedHistory is returned when the ledger's recorded revision is
	// not part of the loaded step chain, meaning applied steps were edited or
	// removed after the fact.
	ErrDivergedHistory = errors.New("schema history diverged from step chain")
	// ErrStalePlan is returned when a plan's base revision no longer matches
	// the ledger at apply time.
	ErrStalePlan = errors.New("migration plan is stale")
	// ErrMigrationLocked is returned when another process holds the
	// single-writer migration lock.
	ErrMigrationLocked = errors.New("migration lock is held by another process")
)
