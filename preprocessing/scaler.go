// Package preprocessing provides feature transformations applied ahead of
// model fitting.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/haying/madlib/core/state"
	"github.com/haying/madlib/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance.
// Zero-variance columns keep a unit scale so transforming them is a no-op
// beyond centering.
type StandardScaler struct {
	state *state.StateManager

	// Mean holds the per-feature means seen during Fit.
	Mean []float64
	// Scale holds the per-feature standard deviations seen during Fit.
	Scale []float64

	// WithMean controls centering, WithStd controls scaling.
	WithMean bool
	WithStd  bool
}

// NewStandardScaler creates a scaler that both centers and scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{
		state:    state.NewStateManager(),
		WithMean: true,
		WithStd:  true,
	}
}

// Fit computes per-feature means and standard deviations.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrNoData, "StandardScaler.Fit")
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(r)

		var ss float64
		for i := 0; i < r; i++ {
			d := X.At(i, j) - s.Mean[j]
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(r))
		if sd == 0 {
			sd = 1
		}
		s.Scale[j] = sd
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform standardizes X with the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Mean), c)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if s.WithMean {
				v -= s.Mean[j]
			}
			if s.WithStd {
				v /= s.Scale[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// FitTransform fits the scaler and transforms X in one call.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized values back to the original space.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Mean), c)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if s.WithStd {
				v *= s.Scale[j]
			}
			if s.WithMean {
				v += s.Mean[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// IsFitted reports whether Fit has run.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }
