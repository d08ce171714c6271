package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/convex"
	"github.com/haying/madlib/core/state"
	"github.com/haying/madlib/metrics"
	"github.com/haying/madlib/pkg/errors"
)

// Lasso is L1-penalized least squares. The non-smooth penalty restricts it
// to the igd solver, whose per-example step ends with the soft-threshold
// proximal update that produces exact zeros.
type Lasso struct {
	params
	State *state.StateManager

	Coefs     []float64
	Snapshot  *convex.Snapshot
	Converged bool
	NIters    int
}

// NewLasso creates a LASSO estimator.
func NewLasso(opts ...Option) *Lasso {
	p := defaultParams("igd")
	for _, opt := range opts {
		opt(&p)
	}
	return &Lasso{params: p, State: state.NewStateManager()}
}

// Fit trains the model on X against an n×1 target column.
func (l *Lasso) Fit(X, y mat.Matrix) error {
	r, c, err := checkXY("Lasso.Fit", X, y)
	if err != nil {
		return err
	}

	driver, err := newDriver(l.params, convex.KindLasso, c)
	if err != nil {
		return err
	}
	snap, err := driver.Run(labeledSource{X: X, y: y})
	if err != nil {
		return err
	}

	l.Coefs = snap.Model
	l.Snapshot = snap
	l.Converged = driver.Converged
	l.NIters = len(driver.History)
	l.State.SetDimensions(c, r)
	l.State.SetFitted()
	return nil
}

// Predict returns the fitted values w·x per row.
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := l.State.RequireFitted("Lasso", "Predict"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if c != len(l.Coefs) {
		return nil, errors.NewDimensionError("Lasso.Predict", len(l.Coefs), c)
	}
	return rawScores(l.Coefs, X), nil
}

// Score returns the coefficient of determination R² on X against y.
func (l *Lasso) Score(X, y mat.Matrix) (float64, error) {
	pred, err := l.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// NumNonZero counts the coefficients the L1 penalty left active.
func (l *Lasso) NumNonZero() int {
	var n int
	for _, w := range l.Coefs {
		if w != 0 {
			n++
		}
	}
	return n
}
