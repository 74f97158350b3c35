package trendline

import (
	"fmt"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

type searchState int

const (
	recomputeDerivative searchState = iota
	refineStep
)

// Optimizer searches the slope of a pivot-anchored line.
type Optimizer struct {
	Params Params
	// Trace, when set, receives every tested slope.
	Trace func(model.OptimizerStep)
}

// NewOptimizer creates an Optimizer with the given params.
func NewOptimizer(p Params) *Optimizer {
	return &Optimizer{Params: p}
}

// Optimize runs the slope search with DefaultParams.
func Optimize(support bool, pivot int, initSlope float64, y []float64) (model.FitResult, error) {
	return NewOptimizer(DefaultParams()).Optimize(support, pivot, initSlope, y)
}

// SlopeUnit is the scale of one search step: the value range of y divided by its length.
//
// The whole range is divided, (max - min) / n, not max - min/n. Only the
// convergence speed depends on this scale, not the fixed point.
func SlopeUnit(y []float64) float64 {
	high, low, err := calculator.SeriesRange(y)
	if err != nil {
		return 0
	}
	return (high - low) / float64(len(y))
}

// Optimize finds the feasible slope with the smallest squared error starting
// from initSlope. The search moves in the direction that lowers the error,
// as told by a one-sided numeric derivative, and halves the step every time a
// move is infeasible or does not improve.
//
// When initSlope itself is infeasible no move can be accepted: the result
// carries initSlope unchanged and Status FitDegenerate.
func (o *Optimizer) Optimize(support bool, pivot int, initSlope float64, y []float64) (model.FitResult, error) {
	if len(y) == 0 {
		return model.FitResult{}, ErrEmptySeries
	}
	if pivot < 0 || pivot >= len(y) {
		return model.FitResult{}, fmt.Errorf("%w: %d not in [0, %d]", ErrPivotOutOfRange, pivot, len(y)-1)
	}

	p := o.Params
	unit := SlopeUnit(y)
	step := p.InitialStep

	bestSlope := initSlope
	bestErr, feasible := p.CheckLine(support, pivot, initSlope, y)

	res := model.FitResult{Pivot: pivot, Status: model.FitOK}
	if !feasible {
		res.Status = model.FitDegenerate
	}

	state := recomputeDerivative
	var derivative float64
	for step > p.MinStep {
		if state == recomputeDerivative {
			derivative = o.derivative(support, pivot, bestSlope, bestErr, unit, y)
			state = refineStep
		}

		testSlope := bestSlope + unit*step
		if derivative > 0 {
			testSlope = bestSlope - unit*step
		}
		testErr, ok := p.CheckLine(support, pivot, testSlope, y)
		res.Iterations++

		accepted := ok && testErr < bestErr
		if accepted {
			bestSlope, bestErr = testSlope, testErr
			res.Accepted++
			state = recomputeDerivative
		} else {
			step *= 0.5
		}

		if o.Trace != nil {
			o.Trace(model.OptimizerStep{
				Slope:    testSlope,
				Error:    testErr,
				StepSize: step,
				Feasible: ok,
				Accepted: accepted,
				BestErr:  bestErr,
			})
		}
	}

	res.Slope = bestSlope
	res.Intercept = y[pivot] - bestSlope*float64(pivot)
	res.SquaredError = bestErr
	return res, nil
}

// derivative estimates the sign of the error slope at the current best.
// If the upward probe is infeasible the downward probe is used instead.
func (o *Optimizer) derivative(support bool, pivot int, slope, bestErr, unit float64, y []float64) float64 {
	delta := unit * o.Params.MinStep
	probeErr, ok := o.Params.CheckLine(support, pivot, slope+delta, y)
	if ok {
		return probeErr - bestErr
	}
	probeErr, _ = o.Params.CheckLine(support, pivot, slope-delta, y)
	return bestErr - probeErr
}
