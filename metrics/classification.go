package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/pkg/errors"
)

// Accuracy computes the fraction of exactly matching labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len())
	}

	var correct int
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix computes accuracy over n×1 matrices.
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	tv, err := columnVec("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := columnVec("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(tv, pv)
}

// LogLoss computes the mean negative log likelihood of predicted
// positive-class probabilities against {0,1} labels. Probabilities are
// clipped away from 0 and 1 before taking logs.
func LogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	if yProb.Len() != n {
		return 0, errors.NewDimensionError("LogLoss", n, yProb.Len())
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := yProb.AtVec(i)
		if yTrue.AtVec(i) > 0 {
			sum -= errors.StabilizeLog(p)
		} else {
			sum -= errors.StabilizeLog(1 - p)
		}
	}
	return sum / float64(n), nil
}

// ConcordanceIndex computes Harrell's C-index for survival risk scores:
// the fraction of comparable subject pairs whose predicted risks order the
// same way as their observed survival times. A pair is comparable when the
// earlier time belongs to an uncensored subject. Tied risks count half.
func ConcordanceIndex(times, risks []float64, events []bool) (float64, error) {
	n := len(times)
	if n == 0 {
		return 0, errors.NewValueError("ConcordanceIndex", "empty input")
	}
	if len(risks) != n || len(events) != n {
		return 0, errors.NewDimensionError("ConcordanceIndex", n, len(risks))
	}

	var concordant, comparable float64
	for i := 0; i < n; i++ {
		if !events[i] {
			continue
		}
		for j := 0; j < n; j++ {
			if j == i || times[j] <= times[i] {
				continue
			}
			comparable++
			switch {
			case risks[i] > risks[j]:
				concordant++
			case risks[i] == risks[j]:
				concordant += 0.5
			}
		}
	}
	if comparable == 0 {
		return 0, errors.NewValueError("ConcordanceIndex", "no comparable pairs")
	}
	return concordant / comparable, nil
}
