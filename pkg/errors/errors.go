// Package errors provides the error taxonomy shared by the whole library.
// Every error carries a stack trace via cockroachdb/errors and can be
// attached to a zerolog event as a structured object.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("madlib-warning: %v\n", w)
	}
	// zerolog sink, set lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler overrides how warnings such as ConvergenceWarning are
// delivered.
//
/// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the zerolog sink when one is installed,
// falling back to the plain handler otherwise.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// ConvergenceWarning is raised when an optimization run stops at the
// iteration cap before reaching its tolerance.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or loosening the tolerance.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// ConfigError reports an invalid task configuration, such as a
// non-positive dimension or an unrecognized objective kind. A pass that
// fails configuration produces no state at all.
type ConfigError struct {
	Op     string
	Param  string
	Reason string
	Value  interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("madlib: %s: invalid configuration for '%s': %s (got: %v)", e.Op, e.Param, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigError")
}

// NewConfigError creates a new ConfigError with a stack trace.
func NewConfigError(op, param, reason string, value interface{}) error {
	err := &ConfigError{Op: op, Param: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// DimensionError reports an example or vector whose length does not match
// the dimension fixed by the task configuration.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("madlib: %s: dimension mismatch. Expected %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace.
func NewDimensionError(op string, expected, got int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// NumericError reports a numerical failure: a singular or ill-conditioned
// Hessian, NaN/Inf in a gradient or loss, or a degenerate ratio. It aborts
// the affected iteration; the driver stops the run rather than continuing
// with a degenerate model.
type NumericError struct {
	Op        string
	Reason    string
	Values    []float64
	Iteration int
}

func (e *NumericError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	if valStr == "" {
		return fmt.Sprintf("madlib: numeric failure in %s at iteration %d: %s", e.Op, e.Iteration, e.Reason)
	}
	return fmt.Sprintf("madlib: numeric failure in %s at iteration %d: %s. Values: [%s]", e.Op, e.Iteration, e.Reason, valStr)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NumericError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values).
		Str("type", "NumericError")
}

// NewNumericError creates a new NumericError with a stack trace.
func NewNumericError(op, reason string, values []float64, iteration int) error {
	err := &NumericError{Op: op, Reason: reason, Values: values, Iteration: iteration}
	return errors.WithStack(err)
}

// SizeLimitError reports a configuration whose dense storage requirement
// exceeds the safe bound, such as a Newton Hessian for a very large
// dimension. Rejecting the configuration is preferred over silently
// truncating or overflowing.
type SizeLimitError struct {
	Op    string
	What  string
	Got   int
	Limit int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("madlib: %s: %s %d exceeds the supported limit %d", e.Op, e.What, e.Got, e.Limit)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *SizeLimitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("what", e.What).
		Int("got", e.Got).
		Int("limit", e.Limit).
		Str("type", "SizeLimitError")
}

// NewSizeLimitError creates a new SizeLimitError with a stack trace.
func NewSizeLimitError(op, what string, got, limit int) error {
	err := &SizeLimitError{Op: op, What: what, Got: got, Limit: limit}
	return errors.WithStack(err)
}

// NotFittedError is returned when Predict or Score is called on an
// estimator that has not been fitted yet.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("madlib: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a new NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is unusable for the requested
// operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("madlib: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Mark associates err with a reference sentinel so that Is(err, reference)
// matches without reference appearing in err's message.
func Mark(err, reference error) error {
	return errors.Mark(err, reference)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrNoData signals that an accumulation pass saw zero rows. This is a
	// normal, recoverable condition, not a failure: the driver consumes it
	// and skips or stops.
	ErrNoData = New("no data accumulated")

	// ErrSingularMatrix signals a singular or not-positive-definite matrix.
	// Factorization failures are marked with it, so callers can branch on
	// the condition without inspecting the NumericError details.
	ErrSingularMatrix = New("singular matrix")
)
