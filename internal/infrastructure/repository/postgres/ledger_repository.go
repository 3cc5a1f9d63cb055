package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
)

// Advisory lock key for the single-writer migration gate. Stable across
// releases; changing it would let two versions migrate concurrently.
const migrationLockKey int64 = 0x7570732d736368 // "ups-sch"

const createRevisionsTable = `CREATE TABLE IF NOT EXISTS schema_revisions (
    id bigserial PRIMARY KEY,
    revision text NOT NULL UNIQUE,
    parent text NOT NULL,
    name text NOT NULL,
    applied_at timestamptz NOT NULL DEFAULT now()
)`

// LedgerRepository records applied schema revisions in the schema_revisions
// table. Each step's SQL and its ledger row commit in one transaction.
type LedgerRepository struct {
	db *sqlx.DB

	mu          sync.Mutex
	tableExists bool
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) ensureTable(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tableExists {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, createRevisionsTable); err != nil {
		return classifyStorageErr("create schema_revisions table", err)
	}
	r.tableExists = true
	return nil
}

func (r *LedgerRepository) CurrentRevision(ctx context.Context) (string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return migration.RevisionNone, err
	}

	var revision string
	err := r.db.GetContext(ctx, &revision,
		"SELECT revision FROM schema_revisions ORDER BY id DESC LIMIT 1")
	if err != nil {
		if isNotFound(err) {
			return migration.RevisionNone, nil
		}
		return migration.RevisionNone, classifyStorageErr("read current revision", err)
	}

	return revision, nil
}

func (r *LedgerRepository) AppliedRevisions(ctx context.Context) ([]migration.AppliedRevision, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	var rows []struct {
		Revision  string    `db:"revision"`
		Parent    string    `db:"parent"`
		Name      string    `db:"name"`
		AppliedAt time.Time `db:"applied_at"`
	}
	err := r.db.SelectContext(ctx, &rows,
		"SELECT revision, parent, name, applied_at FROM schema_revisions ORDER BY id ASC")
	if err != nil {
		return nil, classifyStorageErr("list applied revisions", err)
	}

	out := make([]migration.AppliedRevision, 0, len(rows))
	for _, row := range rows {
		out = append(out, migration.AppliedRevision{
			Revision:  row.Revision,
			Parent:    row.Parent,
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
		})
	}

	return out, nil
}

func (r *LedgerRepository) ApplyUp(ctx context.Context, step migration.Step) error {
	if err := r.ensureTable(ctx); err != nil {
		return err
	}

	return r.inTx(ctx, fmt.Sprintf("apply %s", step.Revision), func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, step.Up); err != nil {
			return fmt.Errorf("forward operation of %s: %w", step.Revision, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_revisions (revision, parent, name) VALUES ($1, $2, $3)",
			step.Revision, step.Parent, step.Name); err != nil {
			return fmt.Errorf("record revision %s: %w", step.Revision, err)
		}
		return nil
	})
}

func (r *LedgerRepository) ApplyDown(ctx context.Context, step migration.Step) error {
	if err := r.ensureTable(ctx); err != nil {
		return err
	}

	return r.inTx(ctx, fmt.Sprintf("revert %s", step.Revision), func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, step.Down); err != nil {
			return fmt.Errorf("backward operation of %s: %w", step.Revision, err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM schema_revisions WHERE revision = $1", step.Revision); err != nil {
			return fmt.Errorf("unrecord revision %s: %w", step.Revision, err)
		}
		return nil
	})
}

// WithLock serializes migration writers across processes via a postgres
// advisory lock held on a dedicated session for the duration of fn.
func (r *LedgerRepository) WithLock(ctx context.Context, fn func(context.Context) error) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return classifyStorageErr("acquire migration connection", err)
	}
	defer conn.Close()

	var acquired bool
	if err := conn.GetContext(ctx, &acquired,
		"SELECT pg_try_advisory_lock($1)", migrationLockKey); err != nil {
		return classifyStorageErr("acquire migration lock", err)
	}
	if !acquired {
		return migration.ErrMigrationLocked
	}

	fnErr := fn(ctx)

	var released bool
	if err := conn.GetContext(ctx, &released,
		"SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
		return crerr.CombineErrors(fnErr, classifyStorageErr("release migration lock", err))
	}

	return fnErr
}

func (r *LedgerRepository) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classifyStorageErr(op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return crerr.CombineErrors(err, fmt.Errorf("rollback %s: %w", op, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifyStorageErr("commit "+op, err)
	}
	return nil
}
