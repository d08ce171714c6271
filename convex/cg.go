package convex

import (
	"gonum.org/v1/gonum/floats"

	"github.com/haying/madlib/pkg/errors"
)

// ConjugateGradient accumulates the exact global gradient while the model
// stays fixed for the whole pass, then derives a conjugate search
// direction at finalize. The model itself is stepped outside the
// aggregation by ApplyStep, decoupling the exact, order-independent
// reduction from the sequential act of moving the model.
type ConjugateGradient struct{}

// Name returns "cg".
func (ConjugateGradient) Name() string { return "cg" }

// Init creates a partition-local CG state.
func (ConjugateGradient) Init(config TaskConfig, previous *Snapshot) (*State, error) {
	s, err := newBaseState("ConjugateGradient.Init", config, previous)
	if err != nil {
		return nil, err
	}
	if _, err := gradientObjective("ConjugateGradient.Init", s); err != nil {
		return nil, err
	}
	if config.Kind == KindLasso {
		return nil, errors.NewConfigError("ConjugateGradient.Init", "kind",
			"L1 objective is not smooth; use the igd strategy", config.Kind.String())
	}
	s.GradSum = make([]float64, config.Dimension)
	return s, nil
}

// Transition accumulates the per-example gradient and loss at the fixed model.
func (ConjugateGradient) Transition(s *State, ex Example) error {
	if err := s.checkDimension("ConjugateGradient.Transition", ex); err != nil {
		return err
	}
	obj, err := gradientObjective("ConjugateGradient.Transition", s)
	if err != nil {
		return err
	}

	obj.Gradient(s.Model, ex, s.scratch)
	floats.Add(s.GradSum, s.scratch)
	s.LossSum += obj.Loss(s.Model, ex)
	s.RowCount++
	return nil
}

// Merge adds the accumulated sums: an exact, associative, commutative
// reduction that is safe under any partitioning or merge order.
func (ConjugateGradient) Merge(left, right *State) (*State, error) {
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	if left.Config.Dimension != right.Config.Dimension {
		return nil, errors.NewDimensionError("ConjugateGradient.Merge", left.Config.Dimension, right.Config.Dimension)
	}
	if left.RowCount == 0 {
		return right, nil
	}
	if right.RowCount == 0 {
		return left, nil
	}

	merged := &State{
		Config:        left.Config,
		obj:           left.obj,
		scratch:       make([]float64, left.Config.Dimension),
		Iteration:     left.Iteration,
		PrevDirection: left.PrevDirection,
		PrevGradient:  left.PrevGradient,
		Model:         cloneModel(left.Model),
	}
	merged.GradSum = make([]float64, len(left.GradSum))
	floats.AddTo(merged.GradSum, left.GradSum, right.GradSum)
	merged.LossSum = left.LossSum + right.LossSum
	merged.RowCount = left.RowCount + right.RowCount
	return merged, nil
}

// Finalize computes the new conjugate direction from the accumulated
// gradient and the previous direction using the Polak-Ribiere update, with
// beta clamped at zero so the method restarts as steepest descent whenever
// conjugacy degrades. The model is left untouched; callers apply the step
// with Snapshot.ApplyStep.
func (ConjugateGradient) Finalize(s *State) (*Snapshot, error) {
	if s == nil || s.RowCount == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "ConjugateGradient.Finalize")
	}

	d := s.Config.Dimension
	grad := cloneModel(s.GradSum)
	if s.Config.Lambda > 0 {
		floats.AddScaled(grad, s.Config.Lambda, s.Model)
	}
	if err := errors.CheckVector("ConjugateGradient.Finalize", grad, s.Iteration); err != nil {
		return nil, err
	}

	direction := make([]float64, d)
	beta := 0.0
	if s.PrevGradient != nil && s.PrevDirection != nil {
		denom := floats.Dot(s.PrevGradient, s.PrevGradient)
		if denom > 0 {
			// Polak-Ribiere: beta = g.(g - gPrev) / gPrev.gPrev
			num := floats.Dot(grad, grad) - floats.Dot(grad, s.PrevGradient)
			beta = num / denom
			if beta < 0 {
				beta = 0
			}
		}
	}
	for i := range direction {
		direction[i] = -grad[i]
	}
	if beta > 0 {
		floats.AddScaled(direction, beta, s.PrevDirection)
	}

	return &Snapshot{
		Config:    s.Config,
		Model:     cloneModel(s.Model),
		RowCount:  s.RowCount,
		Iteration: s.Iteration + 1,
		Loss:      finalLoss(s.Config.Kind, s.LossSum, s.RowCount),
		GradNorm:  floats.Norm(grad, 2),
		Direction: direction,
		Gradient:  grad,
	}, nil
}

// ApplyStep returns a copy of the snapshot whose model has been moved by
// stepsize along the snapshot's search direction. The direction and
// gradient are carried over so the next pass can warm start its conjugate
// update. Snapshots without a direction are returned unchanged.
func (s *Snapshot) ApplyStep(stepsize float64) *Snapshot {
	if s.Direction == nil {
		return s
	}
	stepped := *s
	stepped.Model = make([]float64, len(s.Model))
	floats.AddScaledTo(stepped.Model, s.Model, stepsize, s.Direction)
	return &stepped
}
