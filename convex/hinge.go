package convex

// hingeObjective is the linear SVM task: loss(w) = max(0, 1 - y*w.x).
type hingeObjective struct{}

// Gradient writes the hinge subgradient into out. When the margin is at
// least 1 the subgradient is zero; the margin == 1 boundary resolves to
// zero by convention.
func (hingeObjective) Gradient(model []float64, ex Example, out []float64) {
	y := signLabel(ex.Label)
	margin := y * dot(model, ex.Features)
	if margin >= 1 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i, x := range ex.Features {
		out[i] = -y * x
	}
}

func (hingeObjective) Loss(model []float64, ex Example) float64 {
	y := signLabel(ex.Label)
	margin := y * dot(model, ex.Features)
	if margin >= 1 {
		return 0
	}
	return 1 - margin
}

// Predict returns the raw margin; positive values classify as +1.
func (hingeObjective) Predict(model, features []float64) float64 {
	return dot(model, features)
}
