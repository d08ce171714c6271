// Package convex implements mergeable optimizer state machines for fitting
// generalized linear models over partitioned data.
//
// Fitting runs as repeated aggregation passes. Within one pass the dataset
// is split across any number of workers; each worker folds its partition
// into a local accumulator with Transition, partial accumulators combine
// with Merge, and Finalize closes the pass into an immutable Snapshot that
// seeds the next iteration. Three strategies share this contract:
//
//   - IGD steps the model on every example. Its merge averages partition
//     models by rowcount and is only approximately order-invariant; this
//     is a documented property of the method.
//   - ConjugateGradient holds the model fixed and accumulates the exact
//     global gradient, deriving a search direction at finalize. The step
//     along that direction is applied outside the pass, optionally chosen
//     by a single-pass best-ball search over candidate stepsizes.
//   - Newton additionally accumulates a dense Hessian and solves for the
//     update at finalize, with Wald standard errors and the condition
//     number as diagnostics.
//
// Objectives are pluggable per model family: hinge-loss SVM, logistic,
// squared error (ridge and LASSO) and the Cox partial likelihood, whose
// risk-set structure is handled as an ordered reduction at finalize.
//
// The Driver type runs the outer loop: one pass per iteration, warm
// starting from the previous snapshot, stopping on relative loss change.
package convex
