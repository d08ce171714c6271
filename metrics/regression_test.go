package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMSE(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 2, 3})
	yPred := mat.NewVecDense(3, []float64{1, 2, 3})

	mse, err := MSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MSE: %v", err)
	}
	if mse != 0 {
		t.Errorf("perfect prediction MSE = %v, want 0", mse)
	}

	yPred = mat.NewVecDense(3, []float64{2, 2, 2})
	mse, err = MSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MSE: %v", err)
	}
	if want := 2.0 / 3.0; math.Abs(mse-want) > 1e-15 {
		t.Errorf("MSE = %v, want %v", mse, want)
	}

	if _, err := MSE(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil)); err == nil {
		t.Error("length mismatch should fail")
	}
}

func TestR2Score(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	r2, err := R2Score(yTrue, yTrue)
	if err != nil {
		t.Fatalf("R2Score: %v", err)
	}
	if r2 != 1 {
		t.Errorf("perfect prediction R² = %v, want 1", r2)
	}

	// Predicting the mean scores exactly zero.
	mean := mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5})
	r2, err = R2Score(yTrue, mean)
	if err != nil {
		t.Fatalf("R2Score: %v", err)
	}
	if math.Abs(r2) > 1e-15 {
		t.Errorf("mean prediction R² = %v, want 0", r2)
	}

	constant := mat.NewVecDense(2, []float64{5, 5})
	if _, err := R2Score(constant, constant); err == nil {
		t.Error("zero total variance should fail")
	}
}

func TestMatrixWrappers(t *testing.T) {
	yTrue := mat.NewDense(2, 1, []float64{1, 3})
	yPred := mat.NewDense(2, 1, []float64{2, 2})

	mse, err := MSEMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("MSEMatrix: %v", err)
	}
	if mse != 1 {
		t.Errorf("MSEMatrix = %v, want 1", mse)
	}

	wide := mat.NewDense(2, 2, nil)
	if _, err := MSEMatrix(wide, wide); err == nil {
		t.Error("non-column matrix should fail")
	}
}
