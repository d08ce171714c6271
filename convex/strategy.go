package convex

import (
	"github.com/haying/madlib/pkg/errors"
)

// Strategy is the mergeable optimizer contract. One pass over the data is
// driven as: Init once per partition, Transition per example, Merge across
// partitions, Finalize once on the fully merged state.
//
// A nil *State is the absent sentinel and the identity for Merge. Finalize
// does not mutate its input, so finalizing the same accumulator twice
// yields the same snapshot.
type Strategy interface {
	// Name returns the strategy name used in logs and warnings.
	Name() string

	// Init creates a partition-local state. When previous is non-nil its
	// model and bookkeeping seed the new state (warm start); otherwise a
	// fresh zero model of the configured dimension is allocated.
	Init(config TaskConfig, previous *Snapshot) (*State, error)

	// Transition folds one example into the state.
	Transition(s *State, ex Example) error

	// Merge combines two partial states into a new one without mutating
	// either input. Merging with nil returns the other operand.
	Merge(left, right *State) (*State, error)

	// Finalize closes the pass into an immutable snapshot. A state that
	// saw no rows reports ErrNoData, a normal signal rather than a failure.
	Finalize(s *State) (*Snapshot, error)
}

// NewStrategy returns the strategy registered under the given name
// ("igd", "cg" or "newton").
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "igd":
		return IGD{}, nil
	case "cg":
		return ConjugateGradient{}, nil
	case "newton":
		return Newton{}, nil
	default:
		return nil, errors.NewConfigError("NewStrategy", "solver", "unrecognized strategy", name)
	}
}

// newBaseState validates the configuration, resolves the objective and
// seeds the model, shared by all strategies.
func newBaseState(op string, config TaskConfig, previous *Snapshot) (*State, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	obj, err := NewObjective(config.Kind)
	if err != nil {
		return nil, err
	}

	s := &State{
		Config:  config,
		obj:     obj,
		scratch: make([]float64, config.Dimension),
	}
	if previous != nil {
		if len(previous.Model) != config.Dimension {
			return nil, errors.NewDimensionError(op, config.Dimension, len(previous.Model))
		}
		s.Model = cloneModel(previous.Model)
		s.Iteration = previous.Iteration
		s.PrevDirection = cloneModel(previous.Direction)
		s.PrevGradient = cloneModel(previous.Gradient)
	} else {
		s.Model = make([]float64, config.Dimension)
	}
	return s, nil
}

// gradientObjective asserts that the state's objective has per-example
// gradients, which IGD and CG require.
func gradientObjective(op string, s *State) (GradientObjective, error) {
	obj, ok := s.obj.(GradientObjective)
	if !ok {
		return nil, errors.NewConfigError(op, "kind",
			"objective has no per-example gradient; use the newton strategy", s.Config.Kind.String())
	}
	return obj, nil
}
