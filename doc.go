// Package madlib fits generalized linear models over partitioned data with
// mergeable optimizer state machines.
//
// The convex package is the core: incremental gradient descent, conjugate
// gradient and Newton strategies share a transition/merge/finalize
// contract, so a fit runs as repeated aggregation passes that parallelize
// over any partitioning of the data. A single-pass best-ball search picks
// the conjugate gradient stepsize from a candidate batch.
//
// The glm package wraps the optimizers in scikit-learn-style estimators:
// linear SVM, logistic regression, ridge, LASSO and Cox proportional
// hazards, with Wald inference after Newton fits.
//
// # Quick start
//
//	model := glm.NewLogisticRegression(glm.WithLambda(0.1))
//	if err := model.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	preds, err := model.Predict(XTest)
//
// Fitted estimators persist with core/state's gob helpers; optimizer
// snapshots additionally carry a stable flat binary form for exchange with
// other runtimes.
package madlib
