package convex

import (
	"github.com/haying/madlib/pkg/errors"
)

// IGD is incremental gradient descent: the model mutates on every example,
// so each partition walks its own numeric trajectory and partitions are
// reconciled by rowcount-weighted model averaging at merge.
//
// The averaging makes merge only approximately order-invariant: different
// merge-tree shapes yield numerically different, equally valid results.
// That is a documented characteristic of the method, not a defect;
// exactness was never the contract for this strategy.
type IGD struct{}

// Name returns "igd".
func (IGD) Name() string { return "igd" }

// Init creates a partition-local IGD state.
func (IGD) Init(config TaskConfig, previous *Snapshot) (*State, error) {
	s, err := newBaseState("IGD.Init", config, previous)
	if err != nil {
		return nil, err
	}
	if _, err := gradientObjective("IGD.Init", s); err != nil {
		return nil, err
	}
	if config.StepSize <= 0 {
		return nil, errors.NewConfigError("IGD.Init", "stepsize", "must be positive", config.StepSize)
	}
	return s, nil
}

// Transition takes one gradient step on the model. For LASSO the step is
// followed by the soft-threshold proximal update; for other kinds a
// non-zero lambda enters the gradient as an L2 term.
func (IGD) Transition(s *State, ex Example) error {
	if err := s.checkDimension("IGD.Transition", ex); err != nil {
		return err
	}
	obj, err := gradientObjective("IGD.Transition", s)
	if err != nil {
		return err
	}

	alpha := s.Config.StepSize
	obj.Gradient(s.Model, ex, s.scratch)
	if s.Config.Kind == KindLasso {
		for i := range s.Model {
			s.Model[i] -= alpha * s.scratch[i]
		}
		softThreshold(s.Model, alpha*s.Config.Lambda)
	} else {
		for i := range s.Model {
			s.Model[i] -= alpha * (s.scratch[i] + s.Config.Lambda*s.Model[i])
		}
	}

	loss := obj.Loss(s.Model, ex)
	if err := errors.CheckScalar("IGD.Transition", loss, s.Iteration); err != nil {
		return err
	}
	s.LossSum += loss
	s.RowCount++
	return nil
}

// Merge combines two partial states by rowcount-weighted model averaging.
func (IGD) Merge(left, right *State) (*State, error) {
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	if left.Config.Dimension != right.Config.Dimension {
		return nil, errors.NewDimensionError("IGD.Merge", left.Config.Dimension, right.Config.Dimension)
	}
	if left.RowCount == 0 {
		return right, nil
	}
	if right.RowCount == 0 {
		return left, nil
	}

	merged := &State{
		Config:        left.Config,
		obj:           left.obj,
		scratch:       make([]float64, left.Config.Dimension),
		Iteration:     left.Iteration,
		PrevDirection: left.PrevDirection,
		PrevGradient:  left.PrevGradient,
	}

	// The weighted average must read the operands' pre-merge rowcounts;
	// the combined rowcount is assigned only afterwards.
	wl := float64(left.RowCount) / float64(left.RowCount+right.RowCount)
	wr := 1 - wl
	merged.Model = make([]float64, len(left.Model))
	for i := range merged.Model {
		merged.Model[i] = wl*left.Model[i] + wr*right.Model[i]
	}
	merged.LossSum = left.LossSum + right.LossSum
	merged.RowCount = left.RowCount + right.RowCount
	return merged, nil
}

// Finalize snapshots the merged model. The model is already the averaged
// result, so no further transform is applied.
func (IGD) Finalize(s *State) (*Snapshot, error) {
	if s == nil || s.RowCount == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "IGD.Finalize")
	}
	if err := errors.CheckVector("IGD.Finalize", s.Model, s.Iteration); err != nil {
		return nil, err
	}
	return &Snapshot{
		Config:    s.Config,
		Model:     cloneModel(s.Model),
		RowCount:  s.RowCount,
		Iteration: s.Iteration + 1,
		Loss:      finalLoss(s.Config.Kind, s.LossSum, s.RowCount),
	}, nil
}
