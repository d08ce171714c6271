package convex

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/pkg/errors"
)

// TaskConfig holds the immutable per-pass hyperparameters. It is set once
// when a pass is initialized and unchanged through every transition and
// merge of that pass.
type TaskConfig struct {
	// Dimension is the feature-vector length D, fixed for an entire run.
	Dimension int
	// Kind selects the objective.
	Kind Kind
	// StepSize is the gradient stepsize alpha (IGD) or the fixed CG step.
	StepSize float64
	// Lambda is the regularization strength.
	Lambda float64
}

// Validate rejects unusable configurations.
func (c TaskConfig) Validate() error {
	if c.Dimension <= 0 {
		return errors.NewConfigError("TaskConfig.Validate", "dimension", "must be positive", c.Dimension)
	}
	if c.Kind < KindSVM || c.Kind > KindCox {
		return errors.NewConfigError("TaskConfig.Validate", "kind", "unrecognized objective kind", int(c.Kind))
	}
	if c.Lambda < 0 {
		return errors.NewConfigError("TaskConfig.Validate", "lambda", "must be non-negative", c.Lambda)
	}
	return nil
}

// State is the mutable accumulator for one partition of one pass. It pairs
// the task configuration and model snapshot with the algorithm-specific
// partial sums. A nil *State is the explicit "absent" tag and the identity
// element for merge; a non-nil state with RowCount zero is a legitimate
// initialized-but-empty accumulator, distinct from absent.
//
// A state is exclusively owned by the worker folding it. Merge never
// mutates its inputs.
type State struct {
	Config   TaskConfig
	Model    []float64
	RowCount int64

	// Algorithm-specific accumulators. IGD uses only LossSum; CG adds
	// GradSum; Newton adds Hessian; Cox buffers Rows for the ordered
	// reduction at finalize.
	LossSum float64
	GradSum []float64
	Hessian *mat.SymDense
	Rows    []Example

	// Warm-start bookkeeping carried from the previous snapshot.
	Iteration     int
	PrevDirection []float64
	PrevGradient  []float64

	obj     Objective
	scratch []float64
}

func (s *State) checkDimension(op string, ex Example) error {
	if len(ex.Features) != s.Config.Dimension {
		return errors.NewDimensionError(op, s.Config.Dimension, len(ex.Features))
	}
	return nil
}

// cloneModel returns a defensive copy of a coefficient vector.
func cloneModel(m []float64) []float64 {
	if m == nil {
		return nil
	}
	out := make([]float64, len(m))
	copy(out, m)
	return out
}

// Snapshot is the immutable result of finalizing a pass. It seeds the next
// iteration's state (warm start) and serves as the convergence-comparison
// baseline. The model is replaced wholesale at finalize and never mutated
// afterwards.
type Snapshot struct {
	Config    TaskConfig
	Model     []float64
	RowCount  int64
	Iteration int

	// Diagnostics.
	Loss     float64
	GradNorm float64

	// Conjugate-gradient bookkeeping for the next pass. Direction is the
	// search direction computed at finalize; Gradient the accumulated
	// (penalized) gradient it was derived from.
	Direction []float64
	Gradient  []float64

	// Newton diagnostics: per-coefficient standard errors from the
	// inverse-Hessian diagonal and the Hessian condition number.
	StdErrs []float64
	CondNum float64
}

// Distance returns the relative loss change |lossA - lossB| / |lossB|
// between two finalized states. A zero baseline loss is not divided by;
// the pair is reported as maximally distant, i.e. not yet converged.
func Distance(a, b *Snapshot) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	if b.Loss == 0 {
		if a.Loss == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(a.Loss-b.Loss) / math.Abs(b.Loss)
}

// TotalLoss evaluates the unpenalized objective loss of a fixed model over
// a whole source, without running an optimization pass.
func TotalLoss(kind Kind, model []float64, source DataSource) (float64, error) {
	obj, err := NewObjective(kind)
	if err != nil {
		return 0, err
	}
	n := source.NumExamples()

	if batch, ok := obj.(BatchObjective); ok {
		rows := make([]Example, n)
		for i := 0; i < n; i++ {
			rows[i] = source.Example(i)
		}
		d := len(model)
		grad := make([]float64, d)
		hess := mat.NewSymDense(d, nil)
		loss, err := batch.BatchGradHess(model, rows, grad, hess)
		if err != nil {
			return 0, err
		}
		return finalLoss(kind, loss, int64(n)), nil
	}

	grad, ok := obj.(GradientObjective)
	if !ok {
		return 0, errors.NewConfigError("TotalLoss", "kind", "objective cannot score examples", kind.String())
	}
	var sum float64
	for i := 0; i < n; i++ {
		ex := source.Example(i)
		if len(ex.Features) != len(model) {
			return 0, errors.NewDimensionError("TotalLoss", len(model), len(ex.Features))
		}
		sum += grad.Loss(model, ex)
	}
	return finalLoss(kind, sum, int64(n)), nil
}
