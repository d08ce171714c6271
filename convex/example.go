package convex

// Example is one training record: a fixed-length feature vector plus the
// dependent variable. Label carries ±1 for SVM, {0,1} for logistic and the
// raw response for regression. Survival objectives use Time and Event
// instead of Label.
type Example struct {
	Features []float64
	Label    float64
	Time     float64
	Event    bool
}

// DataSource supplies a finite, replayable sequence of examples. The same
// source is scanned once per optimization iteration, so implementations
// must return identical examples across repeated scans.
type DataSource interface {
	// NumExamples returns the number of examples in the source.
	NumExamples() int
	// Example returns the i-th example. Implementations may return a view;
	// callers must not mutate the features.
	Example(i int) Example
}

// SliceDataSource adapts an in-memory slice of examples to DataSource.
type SliceDataSource []Example

// NumExamples returns the number of examples in the slice.
func (s SliceDataSource) NumExamples() int { return len(s) }

// Example returns the i-th example.
func (s SliceDataSource) Example(i int) Example { return s[i] }
