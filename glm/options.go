package glm

import "log/slog"

// params holds the hyperparameters shared by every estimator.
type params struct {
	solver      string
	stepSize    float64
	lambda      float64
	tol         float64
	maxIter     int
	parallelism int
	stepSizes   []float64
	logger      *slog.Logger
}

func defaultParams(solver string) params {
	return params{
		solver:   solver,
		stepSize: 0.01,
		tol:      1e-6,
		maxIter:  100,
	}
}

// Option configures an estimator at construction.
type Option func(*params)

// WithSolver selects the optimizer strategy: "igd", "cg" or "newton".
// Each estimator restricts the choice to the strategies its objective
// supports.
func WithSolver(name string) Option {
	return func(p *params) { p.solver = name }
}

// WithStepSize sets the gradient stepsize (IGD) or the fixed CG step.
func WithStepSize(alpha float64) Option {
	return func(p *params) { p.stepSize = alpha }
}

// WithLambda sets the regularization strength.
func WithLambda(lambda float64) Option {
	return func(p *params) { p.lambda = lambda }
}

// WithTol sets the relative-loss convergence tolerance.
func WithTol(tol float64) Option {
	return func(p *params) { p.tol = tol }
}

// WithMaxIter caps the number of optimization passes.
func WithMaxIter(n int) Option {
	return func(p *params) { p.maxIter = n }
}

// WithParallelism sets the number of partitions folded concurrently per
// pass. Zero or negative uses one partition per CPU.
func WithParallelism(n int) Option {
	return func(p *params) { p.parallelism = n }
}

// WithStepSizes enables the single-pass best-ball line search over the
// given candidate stepsizes. Only the CG solver consults it.
func WithStepSizes(candidates []float64) Option {
	return func(p *params) {
		p.stepSizes = append([]float64(nil), candidates...)
	}
}

// WithLogger routes the optimizer's per-iteration logging.
func WithLogger(logger *slog.Logger) Option {
	return func(p *params) { p.logger = logger }
}
