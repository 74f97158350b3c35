// Package trendline fits support and resistance lines to a price series.
//
// A line is anchored at a pivot index and only its slope is optimized. A
// support line must stay at or below every sample and a resistance line at or
// above every sample, within Tolerance. Among feasible slopes the optimizer
// looks for the one with the smallest sum of squared deviations.
package trendline

import (
	"errors"
	"math"
)

const (
	// DefaultTolerance is the allowed containment violation.
	DefaultTolerance = 1e-5
	// DefaultInitialStep is the first step size, in slope units.
	DefaultInitialStep = 1.0
	// DefaultMinStep ends the search once the step shrinks below it.
	DefaultMinStep = 1e-4

	// InfeasibleError is returned by CheckLine for a slope that breaks containment.
	InfeasibleError = -1.0
)

var (
	ErrEmptySeries      = errors.New("trendline: empty series")
	ErrPivotOutOfRange  = errors.New("trendline: pivot out of range")
	ErrInsufficientData = errors.New("trendline: need at least 2 points")
	ErrLengthMismatch   = errors.New("trendline: high, low and close lengths differ")
)

// Params tunes the line check and the slope search.
type Params struct {
	Tolerance   float64
	InitialStep float64
	MinStep     float64
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		Tolerance:   DefaultTolerance,
		InitialStep: DefaultInitialStep,
		MinStep:     DefaultMinStep,
	}
}

// CheckLine evaluates the line through (pivot, y[pivot]) with the given slope
// using DefaultTolerance. See Params.CheckLine.
func CheckLine(support bool, pivot int, slope float64, y []float64) (float64, bool) {
	return DefaultParams().CheckLine(support, pivot, slope, y)
}

// CheckLine returns the sum of squared differences between the line and y and
// true when the line is feasible. An infeasible line returns
// (InfeasibleError, false). A NaN sample makes every line infeasible. The
// pivot must be a valid index of y.
func (p Params) CheckLine(support bool, pivot int, slope float64, y []float64) (float64, bool) {
	intercept := y[pivot] - slope*float64(pivot)

	var sqErr float64
	for i, v := range y {
		diff := slope*float64(i) + intercept - v
		if math.IsNaN(diff) {
			return InfeasibleError, false
		}
		if support && diff > p.Tolerance {
			return InfeasibleError, false
		}
		if !support && diff < -p.Tolerance {
			return InfeasibleError, false
		}
		sqErr += diff * diff
	}
	return sqErr, true
}
