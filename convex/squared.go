package convex

import (
	"gonum.org/v1/gonum/mat"
)

// squaredObjective is the least-squares task: loss(w) = (w.x - y)^2 / 2.
// Ridge's L2 term and LASSO's L1 term are applied by the strategies, not
// here: L2 enters the gradient and Hessian once per pass, L1 through the
// separate soft-threshold step after each incremental gradient update.
type squaredObjective struct{}

func (squaredObjective) Gradient(model []float64, ex Example, out []float64) {
	r := dot(model, ex.Features) - ex.Label
	for i, x := range ex.Features {
		out[i] = r * x
	}
}

func (squaredObjective) Loss(model []float64, ex Example) float64 {
	r := dot(model, ex.Features) - ex.Label
	return r * r / 2
}

// AddHessian adds x*x^T; the squared-loss Hessian is model independent.
func (squaredObjective) AddHessian(model []float64, ex Example, hess *mat.SymDense) {
	for i, xi := range ex.Features {
		for j := i; j < len(ex.Features); j++ {
			hess.SetSym(i, j, hess.At(i, j)+xi*ex.Features[j])
		}
	}
}

// Predict returns the fitted value.
func (squaredObjective) Predict(model, features []float64) float64 {
	return dot(model, features)
}

// softThreshold applies the LASSO proximal step in place:
// w_i <- sign(w_i) * max(0, |w_i| - t).
func softThreshold(model []float64, t float64) {
	for i, w := range model {
		switch {
		case w > t:
			model[i] = w - t
		case w < -t:
			model[i] = w + t
		default:
			model[i] = 0
		}
	}
}
