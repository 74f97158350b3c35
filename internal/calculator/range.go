package calculator

import (
	"errors"

	"github.com/montanaflynn/stats"
)

// SeriesRange returns the highest and lowest value in y.
func SeriesRange(y []float64) (high, low float64, err error) {
	if len(y) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	if high, err = stats.Max(y); err != nil {
		return 0, 0, err
	}
	if low, err = stats.Min(y); err != nil {
		return 0, 0, err
	}
	return high, low, nil
}

// ArgMin returns the index of the smallest value (first occurrence), or -1 for empty input.
func ArgMin(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	idx := 0
	for i := 1; i < len(values); i++ {
		if values[i] < values[idx] {
			idx = i
		}
	}
	return idx
}

// ArgMax returns the index of the largest value (first occurrence), or -1 for empty input.
func ArgMax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	idx := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[idx] {
			idx = i
		}
	}
	return idx
}

// ChannelPosition returns where price sits between support and resistance (0.0~1.0).
func ChannelPosition(price, support, resistance float64) (float64, error) {
	if resistance == support {
		return 0.5, nil
	}
	if resistance < support {
		return 0, errors.New("resistance must be >= support")
	}
	pos := (price - support) / (resistance - support)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
