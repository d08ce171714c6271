package convex

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/pkg/errors"
)

// MaxDenseDimension bounds the feature dimension for Newton's method. The
// Hessian is stored densely, giving D*D state per accumulator; beyond this
// bound the configuration is rejected with a SizeLimitError instead of
// silently truncating or exhausting memory.
const MaxDenseDimension = 2000

// Newton accumulates the exact global gradient and dense Hessian at a
// fixed model, then solves Hessian * delta = gradient at finalize. Merge
// is plain addition, so the reduction is exact under any partitioning.
type Newton struct{}

// Name returns "newton".
func (Newton) Name() string { return "newton" }

// Init creates a partition-local Newton state.
func (Newton) Init(config TaskConfig, previous *Snapshot) (*State, error) {
	if config.Dimension > MaxDenseDimension {
		return nil, errors.NewSizeLimitError("Newton.Init", "dimension", config.Dimension, MaxDenseDimension)
	}
	s, err := newBaseState("Newton.Init", config, previous)
	if err != nil {
		return nil, err
	}
	switch s.obj.(type) {
	case BatchObjective:
		// Rows are buffered and reduced in one ordered sweep at finalize.
	case HessianObjective:
		s.GradSum = make([]float64, config.Dimension)
		s.Hessian = mat.NewSymDense(config.Dimension, nil)
	default:
		return nil, errors.NewConfigError("Newton.Init", "kind",
			"objective provides no Hessian contribution", config.Kind.String())
	}
	return s, nil
}

// Transition accumulates the per-example gradient and Hessian at the fixed
// model, or buffers the row for objectives that reduce over risk sets.
func (Newton) Transition(s *State, ex Example) error {
	if err := s.checkDimension("Newton.Transition", ex); err != nil {
		return err
	}

	switch obj := s.obj.(type) {
	case BatchObjective:
		s.Rows = append(s.Rows, ex)
	case HessianObjective:
		obj.Gradient(s.Model, ex, s.scratch)
		floats.Add(s.GradSum, s.scratch)
		obj.AddHessian(s.Model, ex, s.Hessian)
		s.LossSum += obj.Loss(s.Model, ex)
	}
	s.RowCount++
	return nil
}

// Merge adds the accumulated sums (or concatenates buffered rows): an
// exact, associative, commutative reduction.
func (Newton) Merge(left, right *State) (*State, error) {
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	if left.Config.Dimension != right.Config.Dimension {
		return nil, errors.NewDimensionError("Newton.Merge", left.Config.Dimension, right.Config.Dimension)
	}
	if left.RowCount == 0 {
		return right, nil
	}
	if right.RowCount == 0 {
		return left, nil
	}

	d := left.Config.Dimension
	merged := &State{
		Config:    left.Config,
		obj:       left.obj,
		scratch:   make([]float64, d),
		Iteration: left.Iteration,
		Model:     cloneModel(left.Model),
	}
	if left.GradSum != nil {
		merged.GradSum = make([]float64, d)
		floats.AddTo(merged.GradSum, left.GradSum, right.GradSum)
		merged.Hessian = mat.NewSymDense(d, nil)
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				merged.Hessian.SetSym(i, j, left.Hessian.At(i, j)+right.Hessian.At(i, j))
			}
		}
	}
	if left.Rows != nil || right.Rows != nil {
		merged.Rows = make([]Example, 0, len(left.Rows)+len(right.Rows))
		merged.Rows = append(merged.Rows, left.Rows...)
		merged.Rows = append(merged.Rows, right.Rows...)
	}
	merged.LossSum = left.LossSum + right.LossSum
	merged.RowCount = left.RowCount + right.RowCount
	return merged, nil
}

// Finalize solves the Newton system for the model update and reports the
// standard-error and conditioning diagnostics from the factorized Hessian.
// A singular or non-positive-definite Hessian surfaces as a NumericError;
// there is no silent damped retry.
func (Newton) Finalize(s *State) (*Snapshot, error) {
	if s == nil || s.RowCount == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "Newton.Finalize")
	}

	d := s.Config.Dimension
	grad := make([]float64, d)
	hess := mat.NewSymDense(d, nil)
	loss := s.LossSum

	switch obj := s.obj.(type) {
	case BatchObjective:
		batchLoss, err := obj.BatchGradHess(s.Model, s.Rows, grad, hess)
		if err != nil {
			return nil, err
		}
		loss = batchLoss
	default:
		copy(grad, s.GradSum)
		hess.CopySym(s.Hessian)
	}

	if s.Config.Lambda > 0 {
		floats.AddScaled(grad, s.Config.Lambda, s.Model)
		for i := 0; i < d; i++ {
			hess.SetSym(i, i, hess.At(i, i)+s.Config.Lambda)
		}
	}
	if err := errors.CheckVector("Newton.Finalize", grad, s.Iteration); err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return nil, errors.Mark(errors.NewNumericError("Newton.Finalize",
			"Hessian is singular or not positive definite", nil, s.Iteration),
			errors.ErrSingularMatrix)
	}

	delta := mat.NewVecDense(d, nil)
	if err := chol.SolveVecTo(delta, mat.NewVecDense(d, grad)); err != nil {
		return nil, errors.NewNumericError("Newton.Finalize", "Hessian solve failed", nil, s.Iteration)
	}

	model := cloneModel(s.Model)
	for i := 0; i < d; i++ {
		model[i] -= delta.AtVec(i)
	}
	if err := errors.CheckVector("Newton.Finalize", model, s.Iteration); err != nil {
		return nil, err
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, errors.NewNumericError("Newton.Finalize", "Hessian inverse failed", nil, s.Iteration)
	}
	stdErrs := make([]float64, d)
	for i := 0; i < d; i++ {
		stdErrs[i] = math.Sqrt(inv.At(i, i))
	}

	return &Snapshot{
		Config:    s.Config,
		Model:     model,
		RowCount:  s.RowCount,
		Iteration: s.Iteration + 1,
		Loss:      finalLoss(s.Config.Kind, loss, s.RowCount),
		GradNorm:  floats.Norm(grad, 2),
		StdErrs:   stdErrs,
		CondNum:   chol.Cond(),
	}, nil
}
