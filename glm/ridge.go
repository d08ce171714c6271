package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/convex"
	"github.com/haying/madlib/core/state"
	"github.com/haying/madlib/metrics"
	"github.com/haying/madlib/pkg/errors"
)

// RidgeRegression is L2-penalized least squares, fitted by newton
// (default), which solves in a single pass when lambda is fixed, or by cg
// for dimensions beyond the dense-Hessian limit.
type RidgeRegression struct {
	params
	State *state.StateManager

	Coefs     []float64
	Snapshot  *convex.Snapshot
	Converged bool
	NIters    int
}

// NewRidgeRegression creates a ridge regression estimator.
func NewRidgeRegression(opts ...Option) *RidgeRegression {
	p := defaultParams("newton")
	for _, opt := range opts {
		opt(&p)
	}
	return &RidgeRegression{params: p, State: state.NewStateManager()}
}

// Fit trains the model on X against an n×1 target column.
func (rr *RidgeRegression) Fit(X, y mat.Matrix) error {
	r, c, err := checkXY("RidgeRegression.Fit", X, y)
	if err != nil {
		return err
	}

	driver, err := newDriver(rr.params, convex.KindRidge, c)
	if err != nil {
		return err
	}
	snap, err := driver.Run(labeledSource{X: X, y: y})
	if err != nil {
		return err
	}

	rr.Coefs = snap.Model
	rr.Snapshot = snap
	rr.Converged = driver.Converged
	rr.NIters = len(driver.History)
	rr.State.SetDimensions(c, r)
	rr.State.SetFitted()
	return nil
}

// Predict returns the fitted values w·x per row.
func (rr *RidgeRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rr.State.RequireFitted("RidgeRegression", "Predict"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if c != len(rr.Coefs) {
		return nil, errors.NewDimensionError("RidgeRegression.Predict", len(rr.Coefs), c)
	}
	return rawScores(rr.Coefs, X), nil
}

// Score returns the coefficient of determination R² on X against y.
func (rr *RidgeRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// Inference returns the Wald statistics table. Requires a newton fit.
func (rr *RidgeRegression) Inference() (*InferenceSummary, error) {
	if err := rr.State.RequireFitted("RidgeRegression", "Inference"); err != nil {
		return nil, err
	}
	return newInference(rr.Snapshot)
}
