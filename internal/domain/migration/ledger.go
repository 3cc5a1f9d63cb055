package migration

import (
	"context"
	"time"
)

// AppliedRevision is one row of the durable ledger.
type AppliedRevision struct {
	Revision  string
	Parent    string
	Name      string
	AppliedAt time.Time
}

// Ledger persists which steps have been applied to the store.
//
// ApplyUp executes the step's forward operation and records the revision in
// one atomic unit, so the ledger can never point at a revision whose forward
// step did not fully commit. ApplyDown executes the backward operation and
// removes the revision record the same way. WithLock runs fn under the
// single-writer migration gate and fails fast with ErrMigrationLocked when
// another process holds it.
type Ledger interface {
	CurrentRevision(ctx context.Context) (string, error)
	AppliedRevisions(ctx context.Context) ([]AppliedRevision, error)
	ApplyUp(ctx context.Context, step Step) error
	ApplyDown(ctx context.Context, step Step) error
	WithLock(ctx context.Context, fn func(context.Context) error) error
}
