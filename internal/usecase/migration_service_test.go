package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
	"github.com/riskibarqy/user-profile-svc/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
)

func schemaSteps() []migration.Step {
	return []migration.Step{
		{Revision: "0001", Parent: migration.RevisionNone, Name: "create_user_profiles", Up: "CREATE TABLE t ()", Down: "DROP TABLE t"},
		{Revision: "0002", Parent: "0001", Name: "add_indexes", Up: "CREATE INDEX i ON t", Down: "DROP INDEX i"},
		{Revision: "0003", Parent: "0002", Name: "add_age_bounds", Up: "ALTER TABLE t", Down: "ALTER TABLE t"},
	}
}

func newSchemaChain(t *testing.T) *migration.Chain {
	t.Helper()
	chain, err := migration.NewChain(schemaSteps())
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	return chain
}

// failingLedger fails ApplyUp at a chosen revision, delegating everything
// else to the in-memory ledger.
type failingLedger struct {
	*memory.LedgerRepository
	failAt string
}

func (l *failingLedger) ApplyUp(ctx context.Context, step migration.Step) error {
	if step.Revision == l.failAt {
		return fmt.Errorf("exec %s: syntax error", step.Revision)
	}
	return l.LedgerRepository.ApplyUp(ctx, step)
}

func TestMigrationService_MigrateTo(t *testing.T) {
	ctx := context.Background()
	chain := newSchemaChain(t)

	t.Run("upgrades an empty store to head", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		if err := svc.MigrateTo(ctx, chain.Head()); err != nil {
			t.Fatalf("migrate: %v", err)
		}

		current, err := svc.CurrentRevision(ctx)
		if err != nil {
			t.Fatalf("current revision: %v", err)
		}
		if current != "0003" {
			t.Fatalf("expected head 0003, got %q", current)
		}

		applied, err := svc.AppliedRevisions(ctx)
		if err != nil {
			t.Fatalf("applied revisions: %v", err)
		}
		if len(applied) != 3 || applied[0].Revision != "0001" || applied[2].Revision != "0003" {
			t.Fatalf("unexpected ledger rows: %+v", applied)
		}
	})

	t.Run("is a noop when already at target", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		if err := svc.MigrateTo(ctx, chain.Head()); err != nil {
			t.Fatalf("first migrate: %v", err)
		}
		if err := svc.MigrateTo(ctx, chain.Head()); err != nil {
			t.Fatalf("second migrate: %v", err)
		}
	})

	t.Run("stops at the last committed step on failure", func(t *testing.T) {
		ledger := &failingLedger{LedgerRepository: memory.NewLedgerRepository(), failAt: "0002"}
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		err := svc.MigrateTo(ctx, chain.Head())
		if err == nil || !strings.Contains(err.Error(), "0002") {
			t.Fatalf("expected failure at 0002, got %v", err)
		}

		current, readErr := svc.CurrentRevision(ctx)
		if readErr != nil {
			t.Fatalf("current revision: %v", readErr)
		}
		if current != "0001" {
			t.Fatalf("expected revision pinned at 0001, got %q", current)
		}
	})

	t.Run("rolls back to an earlier revision", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		if err := svc.MigrateTo(ctx, chain.Head()); err != nil {
			t.Fatalf("migrate up: %v", err)
		}
		if err := svc.MigrateTo(ctx, "0001"); err != nil {
			t.Fatalf("migrate down: %v", err)
		}

		current, err := svc.CurrentRevision(ctx)
		if err != nil {
			t.Fatalf("current revision: %v", err)
		}
		if current != "0001" {
			t.Fatalf("expected 0001 after rollback, got %q", current)
		}

		applied, err := svc.AppliedRevisions(ctx)
		if err != nil {
			t.Fatalf("applied revisions: %v", err)
		}
		if len(applied) != 1 {
			t.Fatalf("expected rolled back rows removed from the ledger, got %+v", applied)
		}
	})

	t.Run("rejects an unknown target", func(t *testing.T) {
		svc := NewMigrationService(chain, memory.NewLedgerRepository(), logging.NewNop())
		if err := svc.MigrateTo(ctx, "9999"); !errors.Is(err, migration.ErrUnknownRevision) {
			t.Fatalf("expected ErrUnknownRevision, got %v", err)
		}
	})
}

func TestMigrationService_Apply(t *testing.T) {
	ctx := context.Background()
	chain := newSchemaChain(t)

	t.Run("applies a fresh plan", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		plan, err := svc.Plan(ctx, "0002")
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if plan.BaseRevision != migration.RevisionNone || len(plan.Steps) != 2 {
			t.Fatalf("unexpected plan: %+v", plan)
		}

		if err := svc.Apply(ctx, plan); err != nil {
			t.Fatalf("apply: %v", err)
		}

		current, err := svc.CurrentRevision(ctx)
		if err != nil {
			t.Fatalf("current revision: %v", err)
		}
		if current != "0002" {
			t.Fatalf("expected 0002, got %q", current)
		}
	})

	t.Run("rejects a plan whose base moved", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		plan, err := svc.Plan(ctx, chain.Head())
		if err != nil {
			t.Fatalf("plan: %v", err)
		}

		// Another operator migrates before the plan is applied.
		if err := svc.MigrateTo(ctx, "0001"); err != nil {
			t.Fatalf("concurrent migrate: %v", err)
		}

		if err := svc.Apply(ctx, plan); !errors.Is(err, migration.ErrStalePlan) {
			t.Fatalf("expected ErrStalePlan, got %v", err)
		}
	})

	t.Run("rejects a plan that skips prerequisite steps", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		// A hand-edited plan file: matching base, but only the last step.
		plan := migration.Plan{
			BaseRevision: migration.RevisionNone,
			Target:       "0003",
			Direction:    migration.DirectionUp,
			Steps:        []migration.Step{schemaSteps()[2]},
		}
		if err := svc.Apply(ctx, plan); !errors.Is(err, migration.ErrStalePlan) {
			t.Fatalf("expected ErrStalePlan, got %v", err)
		}

		current, err := svc.CurrentRevision(ctx)
		if err != nil {
			t.Fatalf("current revision: %v", err)
		}
		if current != migration.RevisionNone {
			t.Fatalf("expected the ledger untouched, got %q", current)
		}
	})

	t.Run("rejects a batch with broken linkage", func(t *testing.T) {
		svc := NewMigrationService(chain, memory.NewLedgerRepository(), logging.NewNop())

		steps := schemaSteps()
		plan := migration.Plan{
			BaseRevision: migration.RevisionNone,
			Target:       "0003",
			Direction:    migration.DirectionUp,
			Steps:        []migration.Step{steps[0], steps[2]},
		}
		if err := svc.Apply(ctx, plan); !errors.Is(err, migration.ErrStalePlan) {
			t.Fatalf("expected ErrStalePlan, got %v", err)
		}
	})

	t.Run("rejects a down plan anchored below the current revision", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())
		if err := svc.MigrateTo(ctx, chain.Head()); err != nil {
			t.Fatalf("migrate: %v", err)
		}

		plan := migration.Plan{
			BaseRevision: "0003",
			Target:       "0001",
			Direction:    migration.DirectionDown,
			Steps:        []migration.Step{schemaSteps()[1]},
		}
		if err := svc.Apply(ctx, plan); !errors.Is(err, migration.ErrStalePlan) {
			t.Fatalf("expected ErrStalePlan, got %v", err)
		}
	})

	t.Run("rejects steps outside the chain", func(t *testing.T) {
		svc := NewMigrationService(chain, memory.NewLedgerRepository(), logging.NewNop())

		plan := migration.Plan{
			BaseRevision: migration.RevisionNone,
			Target:       "abcd",
			Direction:    migration.DirectionUp,
			Steps:        []migration.Step{{Revision: "abcd", Name: "handcrafted"}},
		}
		if err := svc.Apply(ctx, plan); !errors.Is(err, migration.ErrUnknownRevision) {
			t.Fatalf("expected ErrUnknownRevision, got %v", err)
		}
	})
}

func TestMigrationService_Status(t *testing.T) {
	ctx := context.Background()
	chain := newSchemaChain(t)
	ledger := memory.NewLedgerRepository()
	svc := NewMigrationService(chain, ledger, logging.NewNop())

	status, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.UpToDate || status.Current != migration.RevisionNone || status.Head != "0003" {
		t.Fatalf("unexpected status for empty store: %+v", status)
	}

	if err := svc.MigrateTo(ctx, chain.Head()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	status, err = svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.UpToDate || status.Current != "0003" {
		t.Fatalf("unexpected status at head: %+v", status)
	}
}

func TestMigrationService_EnsureReady(t *testing.T) {
	ctx := context.Background()
	chain := newSchemaChain(t)

	t.Run("migrates forward when auto apply is set", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		if err := svc.EnsureReady(ctx, true); err != nil {
			t.Fatalf("ensure ready: %v", err)
		}

		current, err := svc.CurrentRevision(ctx)
		if err != nil {
			t.Fatalf("current revision: %v", err)
		}
		if current != "0003" {
			t.Fatalf("expected head, got %q", current)
		}
	})

	t.Run("fails when behind head without auto apply", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		svc := NewMigrationService(chain, ledger, logging.NewNop())

		err := svc.EnsureReady(ctx, false)
		if err == nil || !strings.Contains(err.Error(), "pending steps") {
			t.Fatalf("expected pending steps error, got %v", err)
		}
	})

	t.Run("rejects a revision the chain does not know", func(t *testing.T) {
		ledger := memory.NewLedgerRepository()
		if err := ledger.ApplyUp(ctx, migration.Step{Revision: "cafe", Name: "foreign"}); err != nil {
			t.Fatalf("seed ledger: %v", err)
		}

		svc := NewMigrationService(chain, ledger, logging.NewNop())
		if err := svc.EnsureReady(ctx, false); !errors.Is(err, migration.ErrDivergedHistory) {
			t.Fatalf("expected ErrDivergedHistory, got %v", err)
		}
	})
}
