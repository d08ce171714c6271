package convex

import (
	"math"
	"testing"
)

func logisticConfig(dim int) TaskConfig {
	return TaskConfig{Dimension: dim, Kind: KindLogistic, StepSize: 0.5}
}

var cgExamples = []Example{
	{Features: []float64{1, 0.2}, Label: 1},
	{Features: []float64{0.8, -0.1}, Label: 1},
	{Features: []float64{-0.9, 0.4}, Label: 0},
	{Features: []float64{-1.1, -0.2}, Label: 0},
	{Features: []float64{0.3, 1.2}, Label: 1},
	{Features: []float64{-0.2, -1.4}, Label: 0},
}

func mergeStates(t *testing.T, strategy Strategy, a, b *State) *State {
	t.Helper()
	m, err := strategy.Merge(a, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return m
}

func TestCGMergeAssociativeCommutative(t *testing.T) {
	strategy := ConjugateGradient{}
	config := logisticConfig(2)

	a := foldAll(t, strategy, config, nil, cgExamples[:2])
	b := foldAll(t, strategy, config, nil, cgExamples[2:4])
	c := foldAll(t, strategy, config, nil, cgExamples[4:])

	leftFirst := mergeStates(t, strategy, mergeStates(t, strategy, a, b), c)
	rightFirst := mergeStates(t, strategy, a, mergeStates(t, strategy, b, c))
	swapped := mergeStates(t, strategy, mergeStates(t, strategy, a, c), b)

	const tol = 1e-12
	for _, other := range []*State{rightFirst, swapped} {
		if math.Abs(leftFirst.LossSum-other.LossSum) > tol {
			t.Errorf("loss sums differ across merge orders: %v vs %v", leftFirst.LossSum, other.LossSum)
		}
		for i := range leftFirst.GradSum {
			if math.Abs(leftFirst.GradSum[i]-other.GradSum[i]) > tol {
				t.Errorf("gradient sums differ at %d: %v vs %v", i, leftFirst.GradSum[i], other.GradSum[i])
			}
		}
		if leftFirst.RowCount != other.RowCount {
			t.Errorf("rowcounts differ: %d vs %d", leftFirst.RowCount, other.RowCount)
		}
	}
}

func TestCGModelFixedDuringPass(t *testing.T) {
	strategy := ConjugateGradient{}
	state := foldAll(t, strategy, logisticConfig(2), nil, cgExamples)
	for i, v := range state.Model {
		if v != 0 {
			t.Fatalf("CG transition must not move the model; model[%d] = %v", i, v)
		}
	}
}

func TestCGFinalizeDirectionIsDescent(t *testing.T) {
	strategy := ConjugateGradient{}
	state := foldAll(t, strategy, logisticConfig(2), nil, cgExamples)

	snap, err := strategy.Finalize(state)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if snap.Direction == nil || snap.Gradient == nil {
		t.Fatal("CG snapshot must carry a direction and gradient")
	}
	// First iteration has no previous direction: steepest descent.
	var dotGD float64
	for i := range snap.Direction {
		if snap.Direction[i] != -snap.Gradient[i] {
			t.Errorf("first-iteration direction[%d] = %v, want %v", i, snap.Direction[i], -snap.Gradient[i])
		}
		dotGD += snap.Direction[i] * snap.Gradient[i]
	}
	if dotGD >= 0 {
		t.Errorf("direction is not a descent direction: g.d = %v", dotGD)
	}
}

func TestCGFinalizeIdempotent(t *testing.T) {
	strategy := ConjugateGradient{}
	state := foldAll(t, strategy, logisticConfig(2), nil, cgExamples)

	first, err := strategy.Finalize(state)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	second, err := strategy.Finalize(state)
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if first.Loss != second.Loss {
		t.Errorf("loss differs across finalizes: %v vs %v", first.Loss, second.Loss)
	}
	for i := range first.Direction {
		if first.Direction[i] != second.Direction[i] {
			t.Fatalf("direction differs across finalizes at %d", i)
		}
	}
}

func TestCGApplyStepMovesModelOnly(t *testing.T) {
	strategy := ConjugateGradient{}
	state := foldAll(t, strategy, logisticConfig(2), nil, cgExamples)
	snap, err := strategy.Finalize(state)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	stepped := snap.ApplyStep(0.5)
	for i := range snap.Model {
		want := snap.Model[i] + 0.5*snap.Direction[i]
		if math.Abs(stepped.Model[i]-want) > 1e-15 {
			t.Errorf("stepped model[%d] = %v, want %v", i, stepped.Model[i], want)
		}
		if stepped.Direction[i] != snap.Direction[i] {
			t.Error("ApplyStep must keep the direction for the next warm start")
		}
	}
	// The original snapshot is immutable.
	if snap.Model[0] != 0 {
		t.Error("ApplyStep mutated the source snapshot")
	}
}

func TestCGPassIsPartitionInvariant(t *testing.T) {
	source := SliceDataSource(cgExamples)
	config := logisticConfig(2)

	sequential, err := RunPass(ConjugateGradient{}, config, nil, source, 1)
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	parallel, err := RunPass(ConjugateGradient{}, config, nil, source, 3)
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	const tol = 1e-12
	if math.Abs(sequential.Loss-parallel.Loss) > tol {
		t.Errorf("loss differs across partitionings: %v vs %v", sequential.Loss, parallel.Loss)
	}
	for i := range sequential.Direction {
		if math.Abs(sequential.Direction[i]-parallel.Direction[i]) > tol {
			t.Errorf("direction differs across partitionings at %d", i)
		}
	}
}

func TestCGDriverReducesLoss(t *testing.T) {
	source := SliceDataSource(cgExamples)
	driver := &Driver{
		Strategy:      ConjugateGradient{},
		Config:        logisticConfig(2),
		Tolerance:     1e-9,
		MaxIterations: 8,
		Parallelism:   1,
		StepSizes:     []float64{0.01, 0.1, 0.5, 1.0},
	}

	final, err := driver.Run(source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(driver.History) < 2 {
		t.Fatalf("expected at least two iterations, got %d", len(driver.History))
	}
	first := driver.History[0]
	if !(final.Loss < first.Loss) {
		t.Errorf("CG driver did not reduce loss: %v -> %v", first.Loss, final.Loss)
	}

	// Seeding a new pass from the final snapshot continues from its model.
	state, err := ConjugateGradient{}.Init(driver.Config, final)
	if err != nil {
		t.Fatalf("Init from snapshot: %v", err)
	}
	for i := range state.Model {
		if state.Model[i] != final.Model[i] {
			t.Fatal("warm start did not copy the previous model")
		}
	}
}

func TestCGRejectsLasso(t *testing.T) {
	if _, err := (ConjugateGradient{}).Init(TaskConfig{Dimension: 2, Kind: KindLasso, StepSize: 0.1, Lambda: 0.1}, nil); err == nil {
		t.Error("CG should reject the non-smooth L1 objective")
	}
}
