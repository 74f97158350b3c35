package trendline

import (
	"fmt"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// Fitter produces support and resistance lines for a window.
type Fitter struct {
	Optimizer *Optimizer
}

// NewFitter creates a Fitter with the given params.
func NewFitter(p Params) *Fitter {
	return &Fitter{Optimizer: NewOptimizer(p)}
}

// Fit fits both lines against y itself.
func Fit(y []float64) (model.TrendlinePair, error) {
	return NewFitter(DefaultParams()).Fit(y)
}

// FitHighLow fits support on low and resistance on high with DefaultParams.
func FitHighLow(high, low, close []float64) (model.TrendlinePair, error) {
	return NewFitter(DefaultParams()).FitHighLow(high, low, close)
}

// Fit fits support and resistance lines against y. Both start from the
// least-squares slope, anchored at the points lying furthest below and above
// the least-squares line.
func (f *Fitter) Fit(y []float64) (model.TrendlinePair, error) {
	return f.FitHighLow(y, y, y)
}

// FitHighLow fits the support line against low and the resistance line against
// high. Pivots come from the deviation of low and high from the least-squares
// line through close.
func (f *Fitter) FitHighLow(high, low, close []float64) (model.TrendlinePair, error) {
	if len(high) != len(close) || len(low) != len(close) {
		return model.TrendlinePair{}, ErrLengthMismatch
	}
	if len(close) < 2 {
		return model.TrendlinePair{}, ErrInsufficientData
	}

	slope, intercept, err := calculator.LinearFit(close)
	if err != nil {
		return model.TrendlinePair{}, fmt.Errorf("baseline fit: %w", err)
	}

	upperPivot := calculator.ArgMax(calculator.Residuals(high, slope, intercept))
	lowerPivot := calculator.ArgMin(calculator.Residuals(low, slope, intercept))

	support, err := f.Optimizer.Optimize(true, lowerPivot, slope, low)
	if err != nil {
		return model.TrendlinePair{}, fmt.Errorf("support line: %w", err)
	}
	resistance, err := f.Optimizer.Optimize(false, upperPivot, slope, high)
	if err != nil {
		return model.TrendlinePair{}, fmt.Errorf("resistance line: %w", err)
	}

	return model.TrendlinePair{
		Support:       support,
		Resistance:    resistance,
		BaseSlope:     slope,
		BaseIntercept: intercept,
	}, nil
}
