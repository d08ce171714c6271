// Package glm provides estimators for generalized linear models fitted by
// the mergeable optimizers in the convex package: linear SVM, logistic
// regression, ridge, LASSO and Cox proportional hazards.
package glm

import (
	"github.com/haying/madlib/convex"
	"github.com/haying/madlib/core/parallel"
	"github.com/haying/madlib/pkg/errors"

	"gonum.org/v1/gonum/mat"
)

// checkXY validates a feature matrix against an n×1 target.
func checkXY(op string, X, y mat.Matrix) (rows, cols int, err error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.Wrap(errors.ErrNoData, op)
	}
	ry, cy := y.Dims()
	if ry != r {
		return 0, 0, errors.NewDimensionError(op, r, ry)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector (n×1 matrix)")
	}
	return r, c, nil
}

// labeledSource adapts a feature matrix and target column to the
// optimizer's example stream without copying the data.
type labeledSource struct {
	X mat.Matrix
	y mat.Matrix
}

func (s labeledSource) NumExamples() int {
	r, _ := s.X.Dims()
	return r
}

func (s labeledSource) Example(i int) convex.Example {
	_, c := s.X.Dims()
	features := make([]float64, c)
	for j := 0; j < c; j++ {
		features[j] = s.X.At(i, j)
	}
	return convex.Example{Features: features, Label: s.y.At(i, 0)}
}

// newDriver assembles the optimizer loop from estimator hyperparameters.
func newDriver(p params, kind convex.Kind, dimension int) (*convex.Driver, error) {
	strategy, err := convex.NewStrategy(p.solver)
	if err != nil {
		return nil, err
	}
	return &convex.Driver{
		Strategy: strategy,
		Config: convex.TaskConfig{
			Dimension: dimension,
			Kind:      kind,
			StepSize:  p.stepSize,
			Lambda:    p.lambda,
		},
		Tolerance:     p.tol,
		MaxIterations: p.maxIter,
		Parallelism:   p.parallelism,
		StepSizes:     p.stepSizes,
		Logger:        p.logger,
	}, nil
}

// predictParallelThreshold is the row count below which prediction runs
// sequentially; the goroutine fan-out only pays off past it.
const predictParallelThreshold = 1000

// rawScores computes w·x per row of X. Rows are scored in parallel chunks
// for large inputs; each chunk writes disjoint rows of the output.
func rawScores(coefs []float64, X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			var s float64
			for j := 0; j < c; j++ {
				s += coefs[j] * X.At(i, j)
			}
			out.Set(i, 0, s)
		}
	})
	return out
}

// GetParams reports hyperparameters in the conventional key form.
func (p params) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"solver":      p.solver,
		"step_size":   p.stepSize,
		"lambda":      p.lambda,
		"tol":         p.tol,
		"max_iter":    p.maxIter,
		"parallelism": p.parallelism,
	}
}
