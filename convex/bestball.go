package convex

import (
	"gonum.org/v1/gonum/floats"

	"github.com/haying/madlib/pkg/errors"
)

// candidateState is one sub-accumulator of a best-ball search: a fully
// specified candidate model and its running loss total.
type candidateState struct {
	StepSize float64
	Model    []float64
	LossSum  float64
	Rows     int64
}

// StepSizeSearch evaluates several candidate models against one shared
// example stream in a single pass ("best ball"). Data passes are the
// expensive resource here, so all candidates are scored at once instead of
// one pass per trial.
//
// The candidate list is an ordered sequence of independent sub-states; its
// length is fixed for the lifetime of one pass and cannot be resized
// mid-pass.
type StepSizeSearch struct {
	config TaskConfig
	obj    GradientObjective
	cands  []candidateState
}

// NewStepSizeSearch builds a search over model + s*direction for each
// candidate stepsize s, in the given order.
func NewStepSizeSearch(config TaskConfig, model, direction []float64, stepsizes []float64) (*StepSizeSearch, error) {
	if len(stepsizes) == 0 {
		return nil, errors.NewConfigError("NewStepSizeSearch", "stepsizes", "must not be empty", stepsizes)
	}
	if len(model) != config.Dimension || len(direction) != config.Dimension {
		return nil, errors.NewDimensionError("NewStepSizeSearch", config.Dimension, len(model))
	}

	models := make([][]float64, len(stepsizes))
	for i, s := range stepsizes {
		m := make([]float64, config.Dimension)
		floats.AddScaledTo(m, model, s, direction)
		models[i] = m
	}
	search, err := NewModelSearch(config, models)
	if err != nil {
		return nil, err
	}
	for i, s := range stepsizes {
		search.cands[i].StepSize = s
	}
	return search, nil
}

// NewModelSearch builds the generalized variant: a search over an
// arbitrary ordered batch of fully specified candidate models, such as the
// results of several independently run descent trials.
func NewModelSearch(config TaskConfig, models [][]float64) (*StepSizeSearch, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.NewConfigError("NewModelSearch", "models", "must not be empty", len(models))
	}
	obj, err := NewObjective(config.Kind)
	if err != nil {
		return nil, err
	}
	gradObj, ok := obj.(GradientObjective)
	if !ok {
		return nil, errors.NewConfigError("NewModelSearch", "kind",
			"objective cannot score candidates example by example", config.Kind.String())
	}

	cands := make([]candidateState, len(models))
	for i, m := range models {
		if len(m) != config.Dimension {
			return nil, errors.NewDimensionError("NewModelSearch", config.Dimension, len(m))
		}
		cands[i] = candidateState{Model: cloneModel(m)}
	}
	return &StepSizeSearch{config: config, obj: gradObj, cands: cands}, nil
}

// NumCandidates returns the fixed number of sub-states.
func (s *StepSizeSearch) NumCandidates() int { return len(s.cands) }

// Transition folds one example into every candidate's loss total.
func (s *StepSizeSearch) Transition(ex Example) error {
	if len(ex.Features) != s.config.Dimension {
		return errors.NewDimensionError("StepSizeSearch.Transition", s.config.Dimension, len(ex.Features))
	}
	for i := range s.cands {
		s.cands[i].LossSum += s.obj.Loss(s.cands[i].Model, ex)
		s.cands[i].Rows++
	}
	return nil
}

// Merge adds another partial search scan into this one. Both scans must
// hold the same candidates in the same order.
func (s *StepSizeSearch) Merge(other *StepSizeSearch) error {
	if other == nil {
		return nil
	}
	if len(other.cands) != len(s.cands) {
		return errors.NewDimensionError("StepSizeSearch.Merge", len(s.cands), len(other.cands))
	}
	for i := range s.cands {
		s.cands[i].LossSum += other.cands[i].LossSum
		s.cands[i].Rows += other.cands[i].Rows
	}
	return nil
}

// BestResult is the outcome of a best-ball scan.
type BestResult struct {
	Index    int
	StepSize float64
	Model    []float64
	Loss     float64
}

// Finalize selects the candidate with the minimum accumulated loss. Ties
// break to the lowest index. A scan that saw no rows reports ErrNoData.
func (s *StepSizeSearch) Finalize() (*BestResult, error) {
	if len(s.cands) == 0 || s.cands[0].Rows == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "StepSizeSearch.Finalize")
	}

	best := 0
	for i := 1; i < len(s.cands); i++ {
		if s.cands[i].LossSum < s.cands[best].LossSum {
			best = i
		}
	}
	c := s.cands[best]
	if err := errors.CheckScalar("StepSizeSearch.Finalize", c.LossSum, 0); err != nil {
		return nil, err
	}
	return &BestResult{
		Index:    best,
		StepSize: c.StepSize,
		Model:    cloneModel(c.Model),
		Loss:     finalLoss(s.config.Kind, c.LossSum, c.Rows),
	}, nil
}

// RunStepSizeSearch scans the whole source in parallel partitions and
// returns the best candidate stepsize for the given model and direction.
func RunStepSizeSearch(config TaskConfig, model, direction, stepsizes []float64, source DataSource, parallelism int) (*BestResult, error) {
	build := func() (*StepSizeSearch, error) {
		return NewStepSizeSearch(config, model, direction, stepsizes)
	}
	return runSearch(build, source, parallelism)
}

// RunModelSearch scans the whole source in parallel partitions and returns
// the candidate model with the lowest total loss.
func RunModelSearch(config TaskConfig, models [][]float64, source DataSource, parallelism int) (*BestResult, error) {
	build := func() (*StepSizeSearch, error) {
		return NewModelSearch(config, models)
	}
	return runSearch(build, source, parallelism)
}
