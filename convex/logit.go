package convex

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/pkg/errors"
)

// logitObjective is the logistic regression task:
// loss(w) = log(1 + exp(-y*w.x)) with y in {-1,+1}.
type logitObjective struct{}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}

func (logitObjective) Gradient(model []float64, ex Example, out []float64) {
	y := signLabel(ex.Label)
	z := dot(model, ex.Features)
	// d/dw log(1+exp(-y z)) = -y*sigmoid(-y z) * x
	scale := -y * sigmoid(-y*z)
	for i, x := range ex.Features {
		out[i] = scale * x
	}
}

func (logitObjective) Loss(model []float64, ex Example) float64 {
	y := signLabel(ex.Label)
	z := dot(model, ex.Features)
	// log1p(exp(v)) computed without overflow for large v.
	v := -y * z
	if v > 30 {
		return v
	}
	return math.Log1p(math.Exp(v))
}

// AddHessian adds sigma*(1-sigma) * x*x^T, the logistic curvature term.
func (logitObjective) AddHessian(model []float64, ex Example, hess *mat.SymDense) {
	z := dot(model, ex.Features)
	s := sigmoid(z)
	w := s * (1 - s)
	for i, xi := range ex.Features {
		for j := i; j < len(ex.Features); j++ {
			hess.SetSym(i, j, hess.At(i, j)+w*xi*ex.Features[j])
		}
	}
}

// Predict returns the positive-class probability.
func (logitObjective) Predict(model, features []float64) float64 {
	return sigmoid(dot(model, features))
}
