package migration

import "fmt"

// RevisionNone is the recorded revision of an empty schema.
const RevisionNone = ""

// Step is one reversible schema change. Parent is the revision this step
// builds on (RevisionNone for the chain root), so steps form a linked chain.
type Step struct {
	Revision string `json:"revision"`
	Parent   string `json:"parent"`
	Name     string `json:"name"`
	Up       string `json:"up"`
	Down     string `json:"down"`
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Plan is an ordered batch of steps computed against a specific base
// revision. Steps are listed in execution order; for downward plans that is
// newest-first and each step's Down operation applies.
type Plan struct {
	BaseRevision string    `json:"base_revision"`
	Target       string    `json:"target"`
	Direction    Direction `json:"direction"`
	Steps        []Step    `json:"steps"`
}

func (p Plan) IsNoop() bool {
	return len(p.Steps) == 0
}

// Chain is the validated linear sequence of steps from the empty schema root
// to the head revision.
type Chain struct {
	steps []Step
	index map[string]int
}

// NewChain validates the step list: revisions unique and non-empty, each
// step's parent equal to its predecessor's revision (the first step rooted at
// RevisionNone), and both operations present.
func NewChain(steps []Step) (*Chain, error) {
	index := make(map[string]int, len(steps))
	prev := RevisionNone
	for i, step := range steps {
		if step.Revision == RevisionNone {
			return nil, fmt.Errorf("step %d has empty revision", i)
		}
		if _, dup := index[step.Revision]; dup {
			return nil, fmt.Errorf("duplicate revision %q", step.Revision)
		}
		if step.Parent != prev {
			return nil, fmt.Errorf("step %q declares parent %q, expected %q", step.Revision, step.Parent, prev)
		}
		if step.Up == "" {
			return nil, fmt.Errorf("step %q has no forward operation", step.Revision)
		}
		if step.Down == "" {
			return nil, fmt.Errorf("step %q has no backward operation", step.Revision)
		}
		index[step.Revision] = i
		prev = step.Revision
	}

	return &Chain{steps: append([]Step(nil), steps...), index: index}, nil
}

// Head returns the newest revision in the chain, or RevisionNone when the
// chain is empty.
func (c *Chain) Head() string {
	if len(c.steps) == 0 {
		return RevisionNone
	}
	return c.steps[len(c.steps)-1].Revision
}

func (c *Chain) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// Contains reports whether rev is RevisionNone or a revision in the chain.
func (c *Chain) Contains(rev string) bool {
	if rev == RevisionNone {
		return true
	}
	_, ok := c.index[rev]
	return ok
}

func (c *Chain) position(rev string) (int, bool) {
	if rev == RevisionNone {
		return -1, true
	}
	i, ok := c.index[rev]
	return i, ok
}

// PlanTo computes the ordered steps needed to move the schema from current to
// target. The current revision must be part of the chain (ErrDivergedHistory
// otherwise) and the target must be reachable (ErrUnknownRevision). Planning
// to the current revision yields a no-op plan.
func (c *Chain) PlanTo(current, target string) (Plan, error) {
	from, ok := c.position(current)
	if !ok {
		return Plan{}, fmt.Errorf("%w: recorded revision %q is not in the step chain", ErrDivergedHistory, current)
	}
	to, ok := c.position(target)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownRevision, target)
	}

	plan := Plan{BaseRevision: current, Target: target, Direction: DirectionUp}
	switch {
	case to > from:
		plan.Steps = append(plan.Steps, c.steps[from+1:to+1]...)
	case to < from:
		plan.Direction = DirectionDown
		for i := from; i > to; i-- {
			plan.Steps = append(plan.Steps, c.steps[i])
		}
	}

	return plan, nil
}
