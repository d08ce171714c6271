package glm

import (
	"bytes"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/core/state"
	"github.com/haying/madlib/pkg/errors"
)

var (
	clfX = mat.NewDense(6, 2, []float64{
		1, 0.2,
		0.8, -0.1,
		-0.9, 0.4,
		-1.1, -0.2,
		0.3, 1.2,
		-0.2, -1.4,
	})
	clfY = mat.NewDense(6, 1, []float64{1, 1, 0, 0, 1, 0})
)

func TestLogisticRegressionNewton(t *testing.T) {
	lr := NewLogisticRegression(
		WithLambda(0.1),
		WithTol(1e-8),
		WithMaxIter(50),
	)
	if err := lr.Fit(clfX, clfY); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !lr.Converged {
		t.Error("newton fit did not converge")
	}

	acc, err := lr.Score(clfX, clfY)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if acc < 0.8 {
		t.Errorf("training accuracy = %v, want at least 0.8", acc)
	}

	probs, err := lr.PredictProba(clfX)
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	r, _ := probs.Dims()
	for i := 0; i < r; i++ {
		p := probs.At(i, 0)
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Errorf("probability out of range at %d: %v", i, p)
		}
	}

	summary, err := lr.Inference()
	if err != nil {
		t.Fatalf("Inference: %v", err)
	}
	if len(summary.Coefficients) != 2 {
		t.Fatalf("inference has %d rows, want 2", len(summary.Coefficients))
	}
	for i, c := range summary.Coefficients {
		if c.StdErr <= 0 {
			t.Errorf("coefficient %d stderr = %v, want positive", i, c.StdErr)
		}
		if c.PValue < 0 || c.PValue > 1 || math.IsNaN(c.PValue) {
			t.Errorf("coefficient %d p-value out of range: %v", i, c.PValue)
		}
	}
	if summary.CondNum <= 0 {
		t.Errorf("condition number = %v, want positive", summary.CondNum)
	}
}

func TestLogisticRegressionIGDSolverHasNoInference(t *testing.T) {
	lr := NewLogisticRegression(
		WithSolver("igd"),
		WithStepSize(0.5),
		WithTol(1e-4),
		WithMaxIter(200),
	)
	if err := lr.Fit(clfX, clfY); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := lr.Inference(); err == nil {
		t.Error("igd fits carry no standard errors; Inference should fail")
	}
}

func TestSVMClassifier(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		2, 0.5,
		1.5, -0.5,
		-2, 0.3,
		-1.5, -0.8,
	})
	// {0,1} labels exercise the alternate encoding.
	y := mat.NewDense(4, 1, []float64{1, 1, 0, 0})

	svm := NewSVMClassifier(
		WithStepSize(0.1),
		WithTol(1e-6),
		WithMaxIter(100),
	)
	if err := svm.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	acc, err := svm.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if acc != 1 {
		t.Errorf("separable training accuracy = %v, want 1", acc)
	}

	pred, err := svm.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := 0; i < 4; i++ {
		if v := pred.At(i, 0); v != 1 && v != -1 {
			t.Errorf("prediction %d = %v, want ±1", i, v)
		}
	}
}

func TestRidgeRegressionMatchesLeastSquares(t *testing.T) {
	// y = 2x exactly; unpenalized newton recovers the slope.
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	rr := NewRidgeRegression(WithTol(1e-10), WithMaxIter(10))
	if err := rr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if math.Abs(rr.Coefs[0]-2) > 1e-9 {
		t.Errorf("slope = %v, want 2", rr.Coefs[0])
	}

	r2, err := rr.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(r2-1) > 1e-9 {
		t.Errorf("R² = %v, want 1", r2)
	}

	summary, err := rr.Inference()
	if err != nil {
		t.Fatalf("Inference: %v", err)
	}
	if len(summary.Coefficients) != 1 {
		t.Fatalf("inference has %d rows, want 1", len(summary.Coefficients))
	}
}

func TestLassoSparsity(t *testing.T) {
	// The second feature carries no signal; the L1 penalty must zero it.
	X := mat.NewDense(3, 2, []float64{
		1, 0,
		1, 0,
		1, 0,
	})
	y := mat.NewDense(3, 1, []float64{2, 2, 2})

	l := NewLasso(
		WithStepSize(0.1),
		WithLambda(0.5),
		WithTol(1e-8),
		WithMaxIter(100),
	)
	if err := l.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if l.Coefs[1] != 0 {
		t.Errorf("noise coefficient = %v, want exactly 0", l.Coefs[1])
	}
	if l.Coefs[0] <= 0 {
		t.Errorf("signal coefficient = %v, want positive", l.Coefs[0])
	}
	if got := l.NumNonZero(); got != 1 {
		t.Errorf("NumNonZero = %d, want 1", got)
	}
}

func TestCoxPH(t *testing.T) {
	// Higher risk scores die earlier.
	X := mat.NewDense(5, 1, []float64{2.0, 1.5, 0.5, -0.5, -1.0})
	y := mat.NewDense(5, 2, []float64{
		1, 1,
		2, 1,
		3, 1,
		4, 1,
		5, 0, // censored
	})

	cox := NewCoxPH(WithLambda(0.5), WithTol(1e-8), WithMaxIter(20))
	if err := cox.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !cox.Converged {
		t.Error("cox fit did not converge")
	}
	if cox.Coefs[0] <= 0 {
		t.Errorf("hazard coefficient = %v, want positive", cox.Coefs[0])
	}

	c, err := cox.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if c != 1 {
		t.Errorf("concordance on perfectly ordered data = %v, want 1", c)
	}

	hr, err := cox.PredictHazardRatio(X)
	if err != nil {
		t.Fatalf("PredictHazardRatio: %v", err)
	}
	for i := 0; i < 5; i++ {
		if hr.At(i, 0) <= 0 {
			t.Errorf("hazard ratio %d = %v, want positive", i, hr.At(i, 0))
		}
	}

	if _, err := cox.Inference(); err != nil {
		t.Errorf("Inference after a newton fit: %v", err)
	}
}

func TestNotFittedErrors(t *testing.T) {
	X := mat.NewDense(1, 1, []float64{1})
	var nf *errors.NotFittedError

	if _, err := NewLogisticRegression().Predict(X); !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
	if _, err := NewSVMClassifier().DecisionFunction(X); !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
	if _, err := NewRidgeRegression().Predict(X); !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
	if _, err := NewCoxPH().Inference(); !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
}

func TestFitInputValidation(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(2, 1, []float64{1, -1})

	if err := lr.Fit(X, mat.NewDense(3, 1, nil)); err == nil {
		t.Error("row mismatch should fail")
	}
	if err := lr.Fit(X, mat.NewDense(2, 2, nil)); err == nil {
		t.Error("non-column y should fail")
	}

	cox := NewCoxPH()
	if err := cox.Fit(X, mat.NewDense(2, 1, nil)); err == nil {
		t.Error("cox target must have two columns")
	}

	bad := NewLogisticRegression(WithSolver("bogus"))
	if err := bad.Fit(X, mat.NewDense(2, 1, []float64{1, 0})); err == nil {
		t.Error("unknown solver should fail at fit")
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 0, -1, 0, 1, 1, -1, -1})
	y := mat.NewDense(4, 1, []float64{1, 0, 1, 0})

	lr := NewLogisticRegression(WithLambda(0.5), WithMaxIter(20))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := lr.Predict(mat.NewDense(1, 3, []float64{1, 2, 3})); err == nil {
		t.Error("wrong feature count should fail")
	}
}

func TestRidgeGobRoundTrip(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	rr := NewRidgeRegression(WithMaxIter(10))
	if err := rr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	var buf bytes.Buffer
	if err := state.SaveModelToWriter(rr, &buf); err != nil {
		t.Fatalf("SaveModelToWriter: %v", err)
	}

	loaded := NewRidgeRegression()
	if err := state.LoadModelFromReader(loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader: %v", err)
	}
	if !loaded.State.IsFitted() {
		t.Error("loaded model lost its fitted flag")
	}
	for i := range rr.Coefs {
		if loaded.Coefs[i] != rr.Coefs[i] {
			t.Errorf("loaded coef %d = %v, want %v", i, loaded.Coefs[i], rr.Coefs[i])
		}
	}
	if loaded.Snapshot == nil || loaded.Snapshot.Config != rr.Snapshot.Config {
		t.Error("loaded snapshot does not match the saved one")
	}

	pred, err := loaded.Predict(X)
	if err != nil {
		t.Fatalf("Predict after load: %v", err)
	}
	if math.Abs(pred.At(0, 0)-2) > 1e-9 {
		t.Errorf("loaded model predicts %v, want 2", pred.At(0, 0))
	}
}

func TestPredictLargeInputMatchesSequential(t *testing.T) {
	// Enough rows to cross the parallel-prediction threshold; every row
	// must still score exactly w·x.
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	rr := NewRidgeRegression(WithMaxIter(10))
	if err := rr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	const rows = 3 * predictParallelThreshold
	big := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		big.Set(i, 0, float64(i))
	}

	pred, err := rr.Predict(big)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := 0; i < rows; i++ {
		want := rr.Coefs[0] * float64(i)
		if pred.At(i, 0) != want {
			t.Fatalf("prediction %d = %v, want %v", i, pred.At(i, 0), want)
		}
	}
}

func TestGetParams(t *testing.T) {
	lr := NewLogisticRegression(
		WithSolver("cg"),
		WithStepSize(0.25),
		WithLambda(0.5),
		WithMaxIter(42),
	)
	got := lr.GetParams()
	if got["solver"] != "cg" || got["step_size"] != 0.25 || got["lambda"] != 0.5 || got["max_iter"] != 42 {
		t.Errorf("GetParams = %v", got)
	}
}
