// Package metrics provides evaluation metrics for fitted models.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/pkg/errors"
)

// MSE computes the mean squared error between true and predicted values.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len())
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// R2Score computes the coefficient of determination.
//
// R² = 1 - RSS/TSS. A constant true vector has zero total variance and is
// rejected rather than silently scored.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len())
	}

	var mean float64
	for i := 0; i < n; i++ {
		mean += yTrue.AtVec(i)
	}
	mean /= float64(n)

	var rss, tss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		rss += (t - yPred.AtVec(i)) * (t - yPred.AtVec(i))
		tss += (t - mean) * (t - mean)
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// columnVec copies an n×1 matrix into a vector.
func columnVec(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// MSEMatrix computes MSE over n×1 matrices.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	tv, err := columnVec("MSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := columnVec("MSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return MSE(tv, pv)
}

// R2ScoreMatrix computes R² over n×1 matrices.
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	tv, err := columnVec("R2ScoreMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := columnVec("R2ScoreMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(tv, pv)
}
