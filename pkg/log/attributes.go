// Package log defines standard attribute keys for optimization runs.
//
// Using these keys consistently keeps per-iteration log lines filterable:
// every pass logs the same `opt.*` and `data.*` fields regardless of which
// strategy produced them.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "SVMClassifier", "RidgeRegression", "CoxPH"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "run_pass", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "convex", "glm", "preprocessing"
	ComponentKey = "ml.component"
)

// Optimization progress.
const (
	// StrategyKey names the optimization strategy driving the pass.
	// Standard values: "igd", "cg", "newton"
	StrategyKey = "opt.strategy"

	// IterationKey is the outer-loop iteration number, starting at 0.
	IterationKey = "opt.iteration"

	// LossKey is the objective value reported by finalize.
	LossKey = "opt.loss"

	// GradNormKey is the Euclidean norm of the accumulated gradient.
	GradNormKey = "opt.grad_norm"

	// DistanceKey is the relative loss change between two iterations.
	DistanceKey = "opt.distance"

	// StepSizeKey is the stepsize used for the pass, or the one chosen by
	// a best-ball search.
	StepSizeKey = "opt.stepsize"

	// ConvergedKey reports whether the run stopped below tolerance.
	ConvergedKey = "opt.converged"
)

// Data shape.
const (
	// RowsKey is the number of examples folded into a pass.
	RowsKey = "data.rows"

	// DimensionKey is the feature dimension fixed for the run.
	DimensionKey = "data.dimension"

	// PartitionsKey is the number of parallel partitions in a pass.
	PartitionsKey = "data.partitions"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
