package migration

import (
	"errors"
	"testing"
)

func testSteps() []Step {
	return []Step{
		{Revision: "0001", Parent: RevisionNone, Name: "create", Up: "CREATE TABLE t (id INT)", Down: "DROP TABLE t"},
		{Revision: "0002", Parent: "0001", Name: "index", Up: "CREATE INDEX i ON t (id)", Down: "DROP INDEX i"},
		{Revision: "0003", Parent: "0002", Name: "column", Up: "ALTER TABLE t ADD c INT", Down: "ALTER TABLE t DROP c"},
	}
}

func mustChain(t *testing.T) *Chain {
	t.Helper()
	chain, err := NewChain(testSteps())
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	return chain
}

func TestNewChain(t *testing.T) {
	t.Run("rejects duplicate revisions", func(t *testing.T) {
		steps := testSteps()
		steps[2].Revision = "0002"
		if _, err := NewChain(steps); err == nil {
			t.Fatal("expected error for duplicate revision")
		}
	})

	t.Run("rejects broken parent link", func(t *testing.T) {
		steps := testSteps()
		steps[2].Parent = "0001"
		if _, err := NewChain(steps); err == nil {
			t.Fatal("expected error for wrong parent")
		}
	})

	t.Run("rejects missing operations", func(t *testing.T) {
		steps := testSteps()
		steps[1].Down = ""
		if _, err := NewChain(steps); err == nil {
			t.Fatal("expected error for missing backward operation")
		}
	})

	t.Run("empty chain has empty head", func(t *testing.T) {
		chain, err := NewChain(nil)
		if err != nil {
			t.Fatalf("build empty chain: %v", err)
		}
		if chain.Head() != RevisionNone {
			t.Fatalf("expected empty head, got %q", chain.Head())
		}
	})
}

func TestChain_PlanTo(t *testing.T) {
	chain := mustChain(t)

	t.Run("plans all steps up from an empty schema", func(t *testing.T) {
		plan, err := chain.PlanTo(RevisionNone, "0003")
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if plan.Direction != DirectionUp {
			t.Fatalf("expected up plan, got %s", plan.Direction)
		}
		if plan.BaseRevision != RevisionNone || plan.Target != "0003" {
			t.Fatalf("unexpected base/target: %q -> %q", plan.BaseRevision, plan.Target)
		}
		if len(plan.Steps) != 3 || plan.Steps[0].Revision != "0001" || plan.Steps[2].Revision != "0003" {
			t.Fatalf("unexpected steps: %+v", plan.Steps)
		}
	})

	t.Run("plans a partial upgrade", func(t *testing.T) {
		plan, err := chain.PlanTo("0001", "0003")
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if len(plan.Steps) != 2 || plan.Steps[0].Revision != "0002" || plan.Steps[1].Revision != "0003" {
			t.Fatalf("unexpected steps: %+v", plan.Steps)
		}
	})

	t.Run("plans downgrades newest first", func(t *testing.T) {
		plan, err := chain.PlanTo("0003", "0001")
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if plan.Direction != DirectionDown {
			t.Fatalf("expected down plan, got %s", plan.Direction)
		}
		if len(plan.Steps) != 2 || plan.Steps[0].Revision != "0003" || plan.Steps[1].Revision != "0002" {
			t.Fatalf("unexpected steps: %+v", plan.Steps)
		}
	})

	t.Run("plans a full teardown to the empty schema", func(t *testing.T) {
		plan, err := chain.PlanTo("0003", RevisionNone)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if len(plan.Steps) != 3 || plan.Steps[2].Revision != "0001" {
			t.Fatalf("unexpected steps: %+v", plan.Steps)
		}
	})

	t.Run("same revision yields a noop plan", func(t *testing.T) {
		plan, err := chain.PlanTo("0002", "0002")
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if !plan.IsNoop() {
			t.Fatalf("expected noop plan, got %d steps", len(plan.Steps))
		}
	})

	t.Run("unknown current revision reports diverged history", func(t *testing.T) {
		_, err := chain.PlanTo("9999", "0003")
		if !errors.Is(err, ErrDivergedHistory) {
			t.Fatalf("expected ErrDivergedHistory, got %v", err)
		}
	})

	t.Run("unknown target reports unknown revision", func(t *testing.T) {
		_, err := chain.PlanTo(RevisionNone, "9999")
		if !errors.Is(err, ErrUnknownRevision) {
			t.Fatalf("expected ErrUnknownRevision, got %v", err)
		}
	})
}
