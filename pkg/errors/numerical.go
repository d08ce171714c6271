package errors

import (
	"math"
)

// CheckVector returns a NumericError if any value is NaN or Inf.
func CheckVector(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericError(operation, "NaN or Inf detected", values, iteration)
		}
	}
	return nil
}

// CheckScalar returns a NumericError if the value is NaN or Inf.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericError(operation, "NaN or Inf detected", []float64{value}, iteration)
	}
	return nil
}

// StabilizeExp computes exp with protection against overflow.
func StabilizeExp(value float64) float64 {
	const maxExp = 700.0 // exp(700) is close to the float64 maximum
	if value > maxExp {
		return math.Exp(maxExp)
	}
	if value < -maxExp {
		return 0
	}
	return math.Exp(value)
}

// StabilizeLog computes log(max(value, epsilon)) to avoid log(0).
func StabilizeLog(value float64) float64 {
	const epsilon = 1e-10
	if value < epsilon {
		return math.Log(epsilon)
	}
	return math.Log(value)
}
