package convex

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/pkg/errors"
)

// Kind selects the model family an accumulation pass optimizes.
type Kind int

const (
	// KindSVM is linear-kernel classification with hinge loss.
	KindSVM Kind = iota
	// KindLogistic is logistic regression.
	KindLogistic
	// KindRidge is squared-error regression with an L2 penalty.
	KindRidge
	// KindLasso is squared-error regression with an L1 penalty, fitted by
	// an incremental penalized-gradient step.
	KindLasso
	// KindCox is proportional-hazards survival regression over the Cox
	// partial likelihood.
	KindCox
)

// String returns the textual objective name.
func (k Kind) String() string {
	switch k {
	case KindSVM:
		return "svm"
	case KindLogistic:
		return "logistic"
	case KindRidge:
		return "ridge"
	case KindLasso:
		return "lasso"
	case KindCox:
		return "cox"
	default:
		return "unknown"
	}
}

// ParseKind converts an objective name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "svm":
		return KindSVM, nil
	case "logistic", "logit":
		return KindLogistic, nil
	case "ridge":
		return KindRidge, nil
	case "lasso":
		return KindLasso, nil
	case "cox":
		return KindCox, nil
	default:
		return 0, errors.NewConfigError("ParseKind", "kind", "unrecognized objective kind", s)
	}
}

// Objective is the pluggable definition of a model family. Implementations
// are pure: no hidden state and no dependency on call order.
type Objective interface {
	// Predict returns the raw score for a feature vector: the margin for
	// SVM, the positive-class probability for logistic, the fitted value
	// for regression and the relative risk exponent for Cox.
	Predict(model, features []float64) float64
}

// GradientObjective is an objective whose gradient decomposes into
// independent per-example contributions.
type GradientObjective interface {
	Objective

	// Gradient writes the per-example loss gradient at model into out.
	Gradient(model []float64, ex Example, out []float64)

	// Loss returns the per-example loss at model.
	Loss(model []float64, ex Example) float64
}

// HessianObjective additionally contributes a per-example Hessian term for
// Newton's method.
type HessianObjective interface {
	GradientObjective

	// AddHessian adds the per-example Hessian contribution at model into hess.
	AddHessian(model []float64, ex Example, hess *mat.SymDense)
}

// BatchObjective is an objective whose gradient is not per-example
// independent. The Cox partial likelihood is the one such variant: its
// contributions depend on risk sets over the whole pass, so gradient,
// Hessian and loss are produced in one ordered sweep at finalize.
type BatchObjective interface {
	Objective

	// BatchGradHess computes the total gradient, Hessian and loss over all
	// buffered rows at model.
	BatchGradHess(model []float64, rows []Example, grad []float64, hess *mat.SymDense) (loss float64, err error)
}

// NewObjective returns the objective implementation for a kind.
func NewObjective(kind Kind) (Objective, error) {
	switch kind {
	case KindSVM:
		return hingeObjective{}, nil
	case KindLogistic:
		return logitObjective{}, nil
	case KindRidge, KindLasso:
		return squaredObjective{}, nil
	case KindCox:
		return coxObjective{}, nil
	default:
		return nil, errors.NewConfigError("NewObjective", "kind", "unrecognized objective kind", int(kind))
	}
}

// meanLoss reports whether the kind's diagnostics use mean rather than
// total loss. Squared-error objectives report the mean so the loss matches
// MSE regardless of dataset size.
func meanLoss(kind Kind) bool {
	return kind == KindRidge || kind == KindLasso
}

func finalLoss(kind Kind, sum float64, rows int64) float64 {
	if meanLoss(kind) && rows > 0 {
		return sum / float64(rows)
	}
	return sum
}

func dot(a, b []float64) float64 {
	var s float64
	for i, v := range a {
		s += v * b[i]
	}
	return s
}

// signLabel maps a stored label to ±1. Accepts both {0,1} and {-1,+1}
// encodings: anything greater than zero is the positive class.
func signLabel(label float64) float64 {
	if label > 0 {
		return 1
	}
	return -1
}
