package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
)

// SchemaStatus summarizes the store's position on the step chain.
type SchemaStatus struct {
	Current  string `json:"current_revision"`
	Head     string `json:"head_revision"`
	UpToDate bool   `json:"up_to_date"`
}

// MigrationService plans and applies schema changes against the ledger. Plans
// are pinned to the revision they were computed from; Apply re-reads the
// recorded revision under the writer lock and rejects plans whose base no
// longer matches.
type MigrationService struct {
	chain  *migration.Chain
	ledger migration.Ledger
	logger *logging.Logger
}

func NewMigrationService(chain *migration.Chain, ledger migration.Ledger, logger *logging.Logger) *MigrationService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MigrationService{chain: chain, ledger: ledger, logger: logger}
}

func (s *MigrationService) CurrentRevision(ctx context.Context) (string, error) {
	return s.ledger.CurrentRevision(ctx)
}

func (s *MigrationService) AppliedRevisions(ctx context.Context) ([]migration.AppliedRevision, error) {
	return s.ledger.AppliedRevisions(ctx)
}

func (s *MigrationService) Status(ctx context.Context) (SchemaStatus, error) {
	current, err := s.ledger.CurrentRevision(ctx)
	if err != nil {
		return SchemaStatus{}, err
	}

	head := s.chain.Head()
	return SchemaStatus{Current: current, Head: head, UpToDate: current == head}, nil
}

// Plan computes the steps needed to move the recorded revision to target.
// The returned plan is only valid as long as the recorded revision stays at
// the plan's base; Apply enforces this.
func (s *MigrationService) Plan(ctx context.Context, target string) (migration.Plan, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.Plan")
	defer span.End()

	current, err := s.ledger.CurrentRevision(ctx)
	if err != nil {
		return migration.Plan{}, err
	}

	return s.chain.PlanTo(current, target)
}

// Apply executes the plan's steps in order under the single-writer gate. Each
// step commits atomically with its ledger record, so a step failure stops the
// batch and leaves the revision at the last step that committed.
func (s *MigrationService) Apply(ctx context.Context, plan migration.Plan) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.Apply")
	defer span.End()

	for _, step := range plan.Steps {
		if !s.chain.Contains(step.Revision) {
			return fmt.Errorf("%w: plan step %q is not in the step chain", migration.ErrUnknownRevision, step.Revision)
		}
	}
	if err := validatePlanContinuity(plan); err != nil {
		return err
	}

	return s.ledger.WithLock(ctx, func(ctx context.Context) error {
		current, err := s.ledger.CurrentRevision(ctx)
		if err != nil {
			return err
		}
		if current != plan.BaseRevision {
			return fmt.Errorf("%w: plan computed against %q but store is at %q",
				migration.ErrStalePlan, revisionLabel(plan.BaseRevision), revisionLabel(current))
		}
		if err := validatePlanAnchor(plan, current); err != nil {
			return err
		}

		return s.applySteps(ctx, plan)
	})
}

// MigrateTo plans and applies inside a single hold of the writer lock, so the
// plan cannot go stale between computation and execution.
func (s *MigrationService) MigrateTo(ctx context.Context, target string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.MigrateTo")
	defer span.End()

	return s.ledger.WithLock(ctx, func(ctx context.Context) error {
		current, err := s.ledger.CurrentRevision(ctx)
		if err != nil {
			return err
		}

		plan, err := s.chain.PlanTo(current, target)
		if err != nil {
			return err
		}

		return s.applySteps(ctx, plan)
	})
}

// EnsureReady verifies the recorded revision sits at the chain head,
// migrating forward first when autoApply is set. The recorded revision must be
// on the chain either way; a revision the chain does not know means the store
// was touched by a different step history.
func (s *MigrationService) EnsureReady(ctx context.Context, autoApply bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MigrationService.EnsureReady")
	defer span.End()

	if autoApply {
		if err := s.MigrateTo(ctx, s.chain.Head()); err != nil {
			return err
		}
	}

	current, err := s.ledger.CurrentRevision(ctx)
	if err != nil {
		return err
	}
	if !s.chain.Contains(current) {
		return fmt.Errorf("%w: recorded revision %q is not in the step chain", migration.ErrDivergedHistory, current)
	}
	if head := s.chain.Head(); current != head {
		return fmt.Errorf("schema at %s, head is %s: run the pending steps first",
			revisionLabel(current), revisionLabel(head))
	}

	return nil
}

func (s *MigrationService) applySteps(ctx context.Context, plan migration.Plan) error {
	for _, step := range plan.Steps {
		var err error
		switch plan.Direction {
		case migration.DirectionDown:
			err = s.ledger.ApplyDown(ctx, step)
		default:
			err = s.ledger.ApplyUp(ctx, step)
		}
		if err != nil {
			return fmt.Errorf("apply step %s (%s): %w", step.Revision, plan.Direction, err)
		}

		s.logger.InfoContext(ctx, "schema step applied",
			"revision", step.Revision, "name", step.Name, "direction", string(plan.Direction))
	}

	return nil
}

// validatePlanContinuity checks that the plan's steps walk the chain one
// link at a time. Plans round-trip through operator-editable files between
// plan and apply, so their linkage cannot be trusted on re-entry.
func validatePlanContinuity(plan migration.Plan) error {
	for i := 1; i < len(plan.Steps); i++ {
		prev, step := plan.Steps[i-1], plan.Steps[i]
		switch plan.Direction {
		case migration.DirectionDown:
			if step.Revision != prev.Parent {
				return fmt.Errorf("%w: step %s does not follow %s",
					migration.ErrStalePlan, step.Revision, prev.Revision)
			}
		default:
			if step.Parent != prev.Revision {
				return fmt.Errorf("%w: step %s does not build on %s",
					migration.ErrStalePlan, step.Revision, prev.Revision)
			}
		}
	}
	return nil
}

// validatePlanAnchor checks that the first step attaches to the recorded
// revision: an up plan's first step must build on it, a down plan's first
// step must unwind it. Without this a plan with a matching base but skipped
// prerequisites would record a revision whose ancestors never ran.
func validatePlanAnchor(plan migration.Plan, current string) error {
	if len(plan.Steps) == 0 {
		return nil
	}

	first := plan.Steps[0]
	switch plan.Direction {
	case migration.DirectionDown:
		if first.Revision != current {
			return fmt.Errorf("%w: plan unwinds %s but store is at %s",
				migration.ErrStalePlan, first.Revision, revisionLabel(current))
		}
	default:
		if first.Parent != current {
			return fmt.Errorf("%w: plan's first step builds on %s but store is at %s",
				migration.ErrStalePlan, revisionLabel(first.Parent), revisionLabel(current))
		}
	}
	return nil
}

func revisionLabel(rev string) string {
	if rev == migration.RevisionNone {
		return "<empty>"
	}
	return rev
}
