package strategy

import (
	"errors"
	"math"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// ErrWindowNotReady is returned for a window without fitted lines.
var ErrWindowNotReady = errors.New("window has no fitted lines")

// NewSnapshot describes the channel of a fitted window. Line values are
// window-local: x runs 0..lookback-1 inside the window ending at wf.Index.
func NewSnapshot(series *model.PriceSeries, wf *model.WindowFit, lookback int) (*model.TrendSnapshot, error) {
	if wf == nil || !wf.Ready {
		return nil, ErrWindowNotReady
	}
	window := model.PriceSeries{Bars: series.Window(wf.Index, lookback)}
	if len(window.Bars) == 0 {
		return nil, ErrWindowNotReady
	}

	last := lookback - 1
	sup, res := wf.Lines.Support, wf.Lines.Resistance
	closeVal := window.Bars[last].Close

	snap := &model.TrendSnapshot{
		SupportSlope:    sup.Slope,
		ResistanceSlope: res.Slope,
		WidthStart:      res.ValueAt(0) - sup.ValueAt(0),
		WidthEnd:        res.ValueAt(last) - sup.ValueAt(last),
	}

	pos, err := calculator.ChannelPosition(closeVal, sup.ValueAt(last), res.ValueAt(last))
	if err != nil {
		pos = 0.5
	}
	snap.Position = pos

	quote := func(v float64) float64 { return v }
	if series.LogScaled {
		quote = math.Exp
	}
	snap.Close = quote(closeVal)
	snap.SupportLevel = quote(sup.ValueAt(last))
	snap.ResistanceLevel = quote(res.ValueAt(last))
	snap.SupportPct = slopePct(sup.Slope, closeVal, series.LogScaled)
	snap.ResistancePct = slopePct(res.Slope, closeVal, series.LogScaled)

	closes := window.Closes()
	for i := range closes {
		closes[i] = quote(closes[i])
	}
	if snap.RSI, err = calculator.CalculateRSI(closes, 14); err != nil {
		snap.RSI = 50
	}
	return snap, nil
}

// slopePct converts a per-bar slope to percent per bar.
func slopePct(slope, price float64, logScaled bool) float64 {
	if logScaled {
		return (math.Exp(slope) - 1) * 100
	}
	if price == 0 {
		return 0
	}
	return slope / price * 100
}
