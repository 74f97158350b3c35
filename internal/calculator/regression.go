package calculator

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

// ErrTooFewPoints is returned when a least-squares fit has fewer than two points.
var ErrTooFewPoints = errors.New("need at least 2 points for a linear fit")

// LinearFit computes the ordinary least-squares line through y using the
// index 0..n-1 as the independent variable.
func LinearFit(y []float64) (slope, intercept float64, err error) {
	if len(y) < 2 {
		return 0, 0, ErrTooFewPoints
	}
	series := make(stats.Series, len(y))
	for i, v := range y {
		series[i] = stats.Coordinate{X: float64(i), Y: v}
	}
	fitted, err := stats.LinearRegression(series)
	if err != nil {
		return 0, 0, fmt.Errorf("linear regression: %w", err)
	}
	// fitted[0] sits at x=0, fitted[1] at x=1.
	intercept = fitted[0].Y
	slope = fitted[1].Y - fitted[0].Y
	return slope, intercept, nil
}
