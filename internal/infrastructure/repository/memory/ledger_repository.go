package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
)

// LedgerRepository records applied revisions in process memory. Step SQL is
// not executed; the in-memory profile store needs no schema.
type LedgerRepository struct {
	mu      sync.Mutex
	applied []migration.AppliedRevision
	locked  bool
	now     func() time.Time
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{now: time.Now}
}

func (r *LedgerRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *LedgerRepository) CurrentRevision(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.applied) == 0 {
		return migration.RevisionNone, nil
	}
	return r.applied[len(r.applied)-1].Revision, nil
}

func (r *LedgerRepository) AppliedRevisions(_ context.Context) ([]migration.AppliedRevision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]migration.AppliedRevision(nil), r.applied...), nil
}

func (r *LedgerRepository) ApplyUp(_ context.Context, step migration.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.applied = append(r.applied, migration.AppliedRevision{
		Revision:  step.Revision,
		Parent:    step.Parent,
		Name:      step.Name,
		AppliedAt: r.now().UTC(),
	})
	return nil
}

func (r *LedgerRepository) ApplyDown(_ context.Context, step migration.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.applied) > 0 && r.applied[len(r.applied)-1].Revision == step.Revision {
		r.applied = r.applied[:len(r.applied)-1]
	}
	return nil
}

func (r *LedgerRepository) WithLock(ctx context.Context, fn func(context.Context) error) error {
	r.mu.Lock()
	if r.locked {
		r.mu.Unlock()
		return migration.ErrMigrationLocked
	}
	r.locked = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.locked = false
		r.mu.Unlock()
	}()

	return fn(ctx)
}
