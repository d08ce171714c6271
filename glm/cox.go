package glm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/convex"
	"github.com/haying/madlib/core/state"
	"github.com/haying/madlib/metrics"
	"github.com/haying/madlib/pkg/errors"
)

// CoxPH is Cox proportional-hazards survival regression over the Breslow
// partial likelihood, fitted by newton. The target is an n×2 matrix whose
// first column is the observed time and whose second column is the event
// indicator: nonzero for an observed death, zero for censoring.
type CoxPH struct {
	params
	State *state.StateManager

	Coefs     []float64
	Snapshot  *convex.Snapshot
	Converged bool
	NIters    int
}

// NewCoxPH creates a proportional-hazards estimator.
func NewCoxPH(opts ...Option) *CoxPH {
	p := defaultParams("newton")
	for _, opt := range opts {
		opt(&p)
	}
	return &CoxPH{params: p, State: state.NewStateManager()}
}

// survivalSource adapts features plus a [time, event] target to the
// optimizer's example stream.
type survivalSource struct {
	X mat.Matrix
	y mat.Matrix
}

func (s survivalSource) NumExamples() int {
	r, _ := s.X.Dims()
	return r
}

func (s survivalSource) Example(i int) convex.Example {
	_, c := s.X.Dims()
	features := make([]float64, c)
	for j := 0; j < c; j++ {
		features[j] = s.X.At(i, j)
	}
	return convex.Example{
		Features: features,
		Time:     s.y.At(i, 0),
		Event:    s.y.At(i, 1) != 0,
	}
}

// Fit trains the model on X against an n×2 [time, event] target.
func (c *CoxPH) Fit(X, y mat.Matrix) error {
	const op = "CoxPH.Fit"
	r, d := X.Dims()
	if r == 0 || d == 0 {
		return errors.Wrap(errors.ErrNoData, op)
	}
	ry, cy := y.Dims()
	if ry != r {
		return errors.NewDimensionError(op, r, ry)
	}
	if cy != 2 {
		return errors.NewValueError(op, "y must be an n×2 [time, event] matrix")
	}

	driver, err := newDriver(c.params, convex.KindCox, d)
	if err != nil {
		return err
	}
	snap, err := driver.Run(survivalSource{X: X, y: y})
	if err != nil {
		return err
	}

	c.Coefs = snap.Model
	c.Snapshot = snap
	c.Converged = driver.Converged
	c.NIters = len(driver.History)
	c.State.SetDimensions(d, r)
	c.State.SetFitted()
	return nil
}

// Predict returns the linear risk score w·x per row. Higher scores mean
// higher hazard.
func (c *CoxPH) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := c.State.RequireFitted("CoxPH", "Predict"); err != nil {
		return nil, err
	}
	_, d := X.Dims()
	if d != len(c.Coefs) {
		return nil, errors.NewDimensionError("CoxPH.Predict", len(c.Coefs), d)
	}
	return rawScores(c.Coefs, X), nil
}

// PredictHazardRatio returns exp(w·x) per row, the hazard relative to the
// baseline.
func (c *CoxPH) PredictHazardRatio(X mat.Matrix) (mat.Matrix, error) {
	scores, err := c.Predict(X)
	if err != nil {
		return nil, err
	}
	r, _ := scores.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, errors.StabilizeExp(scores.At(i, 0)))
	}
	return out, nil
}

// Score returns Harrell's concordance index of the fitted risk scores
// against an n×2 [time, event] target.
func (c *CoxPH) Score(X, y mat.Matrix) (float64, error) {
	scores, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	r, cy := y.Dims()
	if cy != 2 {
		return 0, errors.NewValueError("CoxPH.Score", "y must be an n×2 [time, event] matrix")
	}

	times := make([]float64, r)
	risks := make([]float64, r)
	events := make([]bool, r)
	for i := 0; i < r; i++ {
		times[i] = y.At(i, 0)
		risks[i] = scores.At(i, 0)
		events[i] = y.At(i, 1) != 0
	}
	return metrics.ConcordanceIndex(times, risks, events)
}

// Inference returns the Wald statistics table for the fitted hazard
// coefficients.
func (c *CoxPH) Inference() (*InferenceSummary, error) {
	if err := c.State.RequireFitted("CoxPH", "Inference"); err != nil {
		return nil, err
	}
	return newInference(c.Snapshot)
}
