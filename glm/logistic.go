package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/convex"
	"github.com/haying/madlib/core/state"
	"github.com/haying/madlib/metrics"
	"github.com/haying/madlib/pkg/errors"
)

// LogisticRegression is a binary classifier over the logistic loss. Labels
// may be encoded as {0,1} or {-1,+1}; predictions use the {0,1} form.
//
// The default solver is newton, which also produces the Wald inference
// table; igd and cg are available for wide problems where a dense Hessian
// is impractical.
type LogisticRegression struct {
	params
	State *state.StateManager

	// Coefs are the fitted coefficients.
	Coefs []float64
	// Snapshot is the final optimizer snapshot with its diagnostics.
	Snapshot *convex.Snapshot
	// Converged reports whether the last fit met the tolerance.
	Converged bool
	// NIters is the number of passes the last fit ran.
	NIters int
}

// NewLogisticRegression creates a logistic regression estimator.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	p := defaultParams("newton")
	for _, opt := range opts {
		opt(&p)
	}
	return &LogisticRegression{params: p, State: state.NewStateManager()}
}

// Fit trains the model on X against an n×1 label column.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	r, c, err := checkXY("LogisticRegression.Fit", X, y)
	if err != nil {
		return err
	}

	driver, err := newDriver(lr.params, convex.KindLogistic, c)
	if err != nil {
		return err
	}
	snap, err := driver.Run(labeledSource{X: X, y: y})
	if err != nil {
		return err
	}

	lr.Coefs = snap.Model
	lr.Snapshot = snap
	lr.Converged = driver.Converged
	lr.NIters = len(driver.History)
	lr.State.SetDimensions(c, r)
	lr.State.SetFitted()
	return nil
}

// PredictProba returns the positive-class probability per row.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.State.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(lr.Coefs) {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", len(lr.Coefs), c)
	}

	scores := rawScores(lr.Coefs, X)
	for i := 0; i < r; i++ {
		s := scores.At(i, 0)
		scores.Set(i, 0, 1/(1+errors.StabilizeExp(-s)))
	}
	return scores, nil
}

// Predict returns {0,1} labels, thresholding the probability at 0.5.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := probs.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if probs.At(i, 0) >= 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// Score returns the classification accuracy on X against y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	// Normalize the truth to {0,1} so either label encoding scores.
	r, _ := y.Dims()
	truth := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if y.At(i, 0) > 0 {
			truth.Set(i, 0, 1)
		}
	}
	return metrics.AccuracyMatrix(truth, pred)
}

// Inference returns the Wald statistics table. Requires a newton fit.
func (lr *LogisticRegression) Inference() (*InferenceSummary, error) {
	if err := lr.State.RequireFitted("LogisticRegression", "Inference"); err != nil {
		return nil, err
	}
	return newInference(lr.Snapshot)
}
