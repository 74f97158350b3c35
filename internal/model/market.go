package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds time-ordered bars for one symbol. Position i in Bars is time step i.
type PriceSeries struct {
	Symbol    string
	Interval  string
	Bars      []OHLCV
	LogScaled bool // prices are natural logs of the quoted values
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Highs returns the high column.
func (s *PriceSeries) Highs() []float64 { return column(s.Bars, func(b OHLCV) float64 { return b.High }) }

// Lows returns the low column.
func (s *PriceSeries) Lows() []float64 { return column(s.Bars, func(b OHLCV) float64 { return b.Low }) }

// Closes returns the close column.
func (s *PriceSeries) Closes() []float64 {
	return column(s.Bars, func(b OHLCV) float64 { return b.Close })
}

// Window returns the lookback bars ending at index end (inclusive).
// The returned slice shares memory with the series and must not be modified.
func (s *PriceSeries) Window(end, lookback int) []OHLCV {
	start := end - lookback + 1
	if start < 0 || end >= len(s.Bars) || lookback <= 0 {
		return nil
	}
	return s.Bars[start : end+1]
}

func column(bars []OHLCV, pick func(OHLCV) float64) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = pick(b)
	}
	return out
}
