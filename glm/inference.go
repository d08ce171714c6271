package glm

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/haying/madlib/convex"
	"github.com/haying/madlib/pkg/errors"
)

// Coefficient is one row of a Wald inference table.
type Coefficient struct {
	Estimate float64
	StdErr   float64
	ZScore   float64
	PValue   float64
}

// InferenceSummary holds per-coefficient Wald statistics and the condition
// number of the final Hessian. It is available after a Newton fit, whose
// inverse Hessian supplies the standard errors.
type InferenceSummary struct {
	Coefficients []Coefficient
	CondNum      float64
}

func newInference(snap *convex.Snapshot) (*InferenceSummary, error) {
	if snap == nil || snap.StdErrs == nil {
		return nil, errors.NewValueError("Inference",
			"no standard errors available; fit with the newton solver")
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	coefs := make([]Coefficient, len(snap.Model))
	for i, est := range snap.Model {
		se := snap.StdErrs[i]
		c := Coefficient{Estimate: est, StdErr: se}
		if se > 0 {
			c.ZScore = est / se
			c.PValue = 2 * normal.CDF(-math.Abs(c.ZScore))
		} else {
			c.ZScore = math.NaN()
			c.PValue = math.NaN()
		}
		coefs[i] = c
	}
	return &InferenceSummary{Coefficients: coefs, CondNum: snap.CondNum}, nil
}
