package calculator

import (
	"errors"
	"fmt"
	"math"

	"TrendSentinel/internal/model"
)

// ErrNonPositivePrice is returned when a log transform meets a price <= 0.
var ErrNonPositivePrice = errors.New("price must be positive for log scale")

// LogBars returns a copy of bars with open/high/low/close replaced by their natural logs.
// Volume is left untouched.
func LogBars(bars []model.OHLCV) ([]model.OHLCV, error) {
	out := make([]model.OHLCV, len(bars))
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return nil, fmt.Errorf("bar %d (%s): %w", i, b.Time.Format("2006-01-02 15:04"), ErrNonPositivePrice)
		}
		out[i] = model.OHLCV{
			Time:   b.Time,
			Open:   math.Log(b.Open),
			High:   math.Log(b.High),
			Low:    math.Log(b.Low),
			Close:  math.Log(b.Close),
			Volume: b.Volume,
		}
	}
	return out, nil
}

// Residuals returns y[i] - (slope*i + intercept) for every index.
func Residuals(y []float64, slope, intercept float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v - (slope*float64(i) + intercept)
	}
	return out
}
