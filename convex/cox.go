package convex

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/pkg/errors"
)

// breslowTieEps is the spacing below which two death times are treated as
// tied and resolved by Breslow's method.
const breslowTieEps = 1e-6

// coxObjective is the proportional-hazards task over the negative Cox
// partial log-likelihood. Its contributions are not per-example
// independent: each event term depends on the risk set of examples still
// alive at that time, so the whole pass is buffered and reduced in one
// ordered sweep at finalize.
type coxObjective struct{}

// Predict returns the linear risk score w.x; exp of it is the relative hazard.
func (coxObjective) Predict(model, features []float64) float64 {
	return dot(model, features)
}

// BatchGradHess computes gradient, Hessian and loss of the negative log
// partial likelihood under Breslow tie handling.
//
// Rows are swept in order of decreasing time, maintaining running risk-set
// sums s0 = sum exp(w.x), s1 = sum exp(w.x)*x and s2 = sum exp(w.x)*x*x^T.
// All rows of a tied group enter the risk set before any of its events
// contribute, so tied deaths see each other in their denominators.
func (coxObjective) BatchGradHess(model []float64, rows []Example, grad []float64, hess *mat.SymDense) (float64, error) {
	d := len(model)
	ordered := make([]Example, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time > ordered[j].Time
	})

	var (
		loss float64
		s0   float64
		s1   = make([]float64, d)
		s2   = mat.NewSymDense(d, nil)
	)

	for start := 0; start < len(ordered); {
		// Group rows whose times are within the tie tolerance of the leader.
		end := start
		for end < len(ordered) && ordered[start].Time-ordered[end].Time < breslowTieEps {
			end++
		}

		// The whole group joins the risk set first.
		for _, row := range ordered[start:end] {
			eta := errors.StabilizeExp(dot(model, row.Features))
			s0 += eta
			for i, xi := range row.Features {
				s1[i] += eta * xi
				for j := i; j < d; j++ {
					s2.SetSym(i, j, s2.At(i, j)+eta*xi*row.Features[j])
				}
			}
		}

		// Then each death in the group contributes against the shared sums.
		for _, row := range ordered[start:end] {
			if !row.Event {
				continue
			}
			if s0 <= 0 {
				return 0, errors.NewNumericError("Cox.BatchGradHess", "empty risk set", []float64{s0}, 0)
			}
			loss += math.Log(s0) - dot(model, row.Features)
			for i := 0; i < d; i++ {
				grad[i] += s1[i]/s0 - row.Features[i]
				for j := i; j < d; j++ {
					hess.SetSym(i, j, hess.At(i, j)+s2.At(i, j)/s0-s1[i]*s1[j]/(s0*s0))
				}
			}
		}

		start = end
	}

	if err := errors.CheckScalar("Cox.BatchGradHess", loss, 0); err != nil {
		return 0, err
	}
	return loss, nil
}
