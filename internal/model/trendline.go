package model

import "time"

// FitStatus tells whether the optimizer ended on a feasible line.
type FitStatus int

const (
	// FitOK means the returned line satisfies the containment constraint.
	FitOK FitStatus = iota
	// FitDegenerate means the initial slope was infeasible and was returned unchanged.
	FitDegenerate
)

func (s FitStatus) String() string {
	switch s {
	case FitOK:
		return "ok"
	case FitDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// FitResult is a line found by the slope optimizer.
type FitResult struct {
	Slope        float64
	Intercept    float64
	Pivot        int
	SquaredError float64 // sum of squared deviations, -1 when degenerate
	Status       FitStatus
	Iterations   int // loop iterations, accepted or not
	Accepted     int // accepted steps
}

// ValueAt evaluates the line at index i.
func (r FitResult) ValueAt(i int) float64 {
	return r.Slope*float64(i) + r.Intercept
}

// Degenerate reports whether the optimizer never reached a feasible line.
func (r FitResult) Degenerate() bool { return r.Status == FitDegenerate }

// OptimizerStep is one tested slope inside the optimizer loop.
type OptimizerStep struct {
	Slope    float64
	Error    float64
	StepSize float64
	Feasible bool
	Accepted bool
	BestErr  float64 // best error after this step
}

// TrendlinePair holds the support and resistance lines of one window.
type TrendlinePair struct {
	Support       FitResult
	Resistance    FitResult
	BaseSlope     float64 // least-squares slope the optimizer started from
	BaseIntercept float64
}

// Slope is an optional slope value; Valid is false before the first full window.
type Slope struct {
	Value float64
	Valid bool
}

// WindowFit is the fit for the window ending at Index.
type WindowFit struct {
	Index int
	Time  time.Time
	Ready bool // false when fewer than lookback bars are available
	Lines TrendlinePair
}

// SlopeSeries is the scan output, aligned one-to-one with the input bars.
type SlopeSeries struct {
	Symbol     string
	Lookback   int
	Times      []time.Time
	Support    []Slope
	Resistance []Slope
	Degenerate int // windows where either optimizer returned FitDegenerate
	Last       *WindowFit
}

// Len returns the number of aligned positions.
func (s *SlopeSeries) Len() int { return len(s.Support) }

// Ready returns the number of positions that carry a value.
func (s *SlopeSeries) Ready() int {
	n := 0
	for _, v := range s.Support {
		if v.Valid {
			n++
		}
	}
	return n
}
