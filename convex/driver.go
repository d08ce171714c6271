package convex

import (
	"log/slog"
	"time"

	"github.com/haying/madlib/core/parallel"
	"github.com/haying/madlib/pkg/errors"
	"github.com/haying/madlib/pkg/log"
)

// passResult carries one partition's fold out of the parallel section.
type passResult struct {
	state *State
	err   error
}

// RunPass executes one full aggregation pass: the source is split into
// parallelism contiguous partitions, each partition is folded sequentially
// into its own state, the partial states are merged pairwise in partition
// order, and the merged state is finalized into a snapshot.
//
// Partition boundaries affect only IGD's numeric trajectory, not its
// convergence; CG and Newton accumulate exact sums and produce the same
// snapshot under any partitioning.
func RunPass(strategy Strategy, config TaskConfig, previous *Snapshot, source DataSource, parallelism int) (*Snapshot, error) {
	// Validate eagerly so an empty source still reports config mistakes.
	if _, err := strategy.Init(config, previous); err != nil {
		return nil, err
	}

	n := source.NumExamples()
	partials := parallel.MapChunks(n, parallelism, func(start, end int) passResult {
		state, err := strategy.Init(config, previous)
		if err != nil {
			return passResult{err: err}
		}
		for i := start; i < end; i++ {
			if err := strategy.Transition(state, source.Example(i)); err != nil {
				return passResult{err: err}
			}
		}
		return passResult{state: state}
	})

	var merged *State
	for _, p := range partials {
		if p.err != nil {
			return nil, p.err
		}
		var err error
		merged, err = strategy.Merge(merged, p.state)
		if err != nil {
			return nil, err
		}
	}
	return strategy.Finalize(merged)
}

// runSearch folds a best-ball scan over the source in parallel partitions.
func runSearch(build func() (*StepSizeSearch, error), source DataSource, parallelism int) (*BestResult, error) {
	type searchResult struct {
		search *StepSizeSearch
		err    error
	}

	n := source.NumExamples()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrNoData, "runSearch")
	}

	partials := parallel.MapChunks(n, parallelism, func(start, end int) searchResult {
		search, err := build()
		if err != nil {
			return searchResult{err: err}
		}
		for i := start; i < end; i++ {
			if err := search.Transition(source.Example(i)); err != nil {
				return searchResult{err: err}
			}
		}
		return searchResult{search: search}
	})

	var merged *StepSizeSearch
	for _, p := range partials {
		if p.err != nil {
			return nil, p.err
		}
		if merged == nil {
			merged = p.search
			continue
		}
		if err := merged.Merge(p.search); err != nil {
			return nil, err
		}
	}
	return merged.Finalize()
}

// Driver runs the outer convergence loop: one aggregation pass per
// iteration, each seeded with the previous iteration's finalized snapshot,
// until the relative loss change drops below Tolerance or MaxIterations is
// reached. Iterations are strictly sequential; every finalized snapshot is
// kept in History keyed by its iteration number before the next pass starts.
type Driver struct {
	Strategy      Strategy
	Config        TaskConfig
	Tolerance     float64
	MaxIterations int
	Parallelism   int

	// StepSizes are the best-ball candidates for the CG line search. When
	// empty, Config.StepSize is applied as a fixed step.
	StepSizes []float64

	// History holds each iteration's finalized snapshot, indexed by
	// iteration number.
	History []*Snapshot

	// Converged reports whether the last Run stopped below Tolerance.
	Converged bool

	Logger *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Run drives passes over the source until convergence. It returns the last
// finalized snapshot. A run that exhausts MaxIterations without meeting
// the tolerance raises a ConvergenceWarning and still returns its last
// snapshot; an empty source returns ErrNoData.
func (d *Driver) Run(source DataSource) (*Snapshot, error) {
	if d.MaxIterations <= 0 {
		return nil, errors.NewConfigError("Driver.Run", "max_iterations", "must be positive", d.MaxIterations)
	}
	if d.Tolerance < 0 {
		return nil, errors.NewConfigError("Driver.Run", "tolerance", "must be non-negative", d.Tolerance)
	}

	logger := d.logger().With(
		log.ComponentKey, "convex",
		log.StrategyKey, d.Strategy.Name(),
		log.DimensionKey, d.Config.Dimension,
	)

	d.History = d.History[:0]
	d.Converged = false

	var previous *Snapshot
	for iter := 0; iter < d.MaxIterations; iter++ {
		start := time.Now()
		snapshot, err := RunPass(d.Strategy, d.Config, previous, source, d.Parallelism)
		if err != nil {
			if errors.Is(err, errors.ErrNoData) {
				// A pass over zero rows is a normal stop signal.
				if previous != nil {
					return previous, nil
				}
				return nil, err
			}
			logger.Error("pass failed", log.ErrAttr(err), log.IterationKey, iter)
			return nil, err
		}

		// CG only computes a direction inside the pass; the model is
		// stepped here, outside the aggregation.
		if snapshot.Direction != nil {
			stepsize := d.Config.StepSize
			if len(d.StepSizes) > 0 {
				best, err := RunStepSizeSearch(d.Config, snapshot.Model, snapshot.Direction, d.StepSizes, source, d.Parallelism)
				if err != nil {
					return nil, err
				}
				stepsize = best.StepSize
			}
			snapshot = snapshot.ApplyStep(stepsize)
		}

		d.History = append(d.History, snapshot)
		dist := Distance(snapshot, previous)
		logger.Info("pass finalized",
			log.OperationKey, "run_pass",
			log.IterationKey, iter,
			log.LossKey, snapshot.Loss,
			log.GradNormKey, snapshot.GradNorm,
			log.DistanceKey, dist,
			log.RowsKey, snapshot.RowCount,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)

		if previous != nil && dist < d.Tolerance {
			d.Converged = true
			logger.Info("converged",
				log.IterationKey, iter,
				log.LossKey, snapshot.Loss,
				log.ConvergedKey, true,
			)
			return snapshot, nil
		}
		previous = snapshot
	}

	errors.Warn(errors.NewConvergenceWarning(d.Strategy.Name(), d.MaxIterations, ""))
	return previous, nil
}
