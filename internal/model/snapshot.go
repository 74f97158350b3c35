package model

// TrendSnapshot describes the latest fitted channel.
type TrendSnapshot struct {
	Close           float64 // last close, quoted scale
	SupportSlope    float64
	ResistanceSlope float64
	SupportPct      float64 // support slope as percent per bar
	ResistancePct   float64
	SupportLevel    float64 // line values at the last bar, quoted scale
	ResistanceLevel float64
	WidthStart      float64 // channel width at the first bar of the window
	WidthEnd        float64
	Position        float64 // 0.0 at support ~ 1.0 at resistance
	RSI             float64
}
