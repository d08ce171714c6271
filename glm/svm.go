package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/convex"
	"github.com/haying/madlib/core/state"
	"github.com/haying/madlib/metrics"
	"github.com/haying/madlib/pkg/errors"
)

// SVMClassifier is a linear-kernel support vector classifier over the
// hinge loss, fitted by igd (default) or cg. Labels may be encoded as
// {0,1} or {-1,+1}; predictions use the {-1,+1} form.
type SVMClassifier struct {
	params
	State *state.StateManager

	Coefs     []float64
	Snapshot  *convex.Snapshot
	Converged bool
	NIters    int
}

// NewSVMClassifier creates a linear SVM estimator.
func NewSVMClassifier(opts ...Option) *SVMClassifier {
	p := defaultParams("igd")
	for _, opt := range opts {
		opt(&p)
	}
	return &SVMClassifier{params: p, State: state.NewStateManager()}
}

// Fit trains the classifier on X against an n×1 label column.
func (svm *SVMClassifier) Fit(X, y mat.Matrix) error {
	r, c, err := checkXY("SVMClassifier.Fit", X, y)
	if err != nil {
		return err
	}

	driver, err := newDriver(svm.params, convex.KindSVM, c)
	if err != nil {
		return err
	}
	snap, err := driver.Run(labeledSource{X: X, y: y})
	if err != nil {
		return err
	}

	svm.Coefs = snap.Model
	svm.Snapshot = snap
	svm.Converged = driver.Converged
	svm.NIters = len(driver.History)
	svm.State.SetDimensions(c, r)
	svm.State.SetFitted()
	return nil
}

// DecisionFunction returns the raw margin w·x per row.
func (svm *SVMClassifier) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := svm.State.RequireFitted("SVMClassifier", "DecisionFunction"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if c != len(svm.Coefs) {
		return nil, errors.NewDimensionError("SVMClassifier.DecisionFunction", len(svm.Coefs), c)
	}
	return rawScores(svm.Coefs, X), nil
}

// Predict returns {-1,+1} labels, thresholding the margin at zero.
func (svm *SVMClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	margins, err := svm.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	r, _ := margins.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if margins.At(i, 0) >= 0 {
			out.Set(i, 0, 1)
		} else {
			out.Set(i, 0, -1)
		}
	}
	return out, nil
}

// Score returns the classification accuracy on X against y.
func (svm *SVMClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := svm.Predict(X)
	if err != nil {
		return 0, err
	}
	// Normalize the truth to {-1,+1} so either label encoding scores.
	r, _ := y.Dims()
	truth := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if y.At(i, 0) > 0 {
			truth.Set(i, 0, 1)
		} else {
			truth.Set(i, 0, -1)
		}
	}
	return metrics.AccuracyMatrix(truth, pred)
}
