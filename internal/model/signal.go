package model

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string
	RawScore   float64
	Weight     float64
	Weighted   float64
	Commentary string
}

// TrendTier maps a total score range to a channel label.
type TrendTier struct {
	Label string
	Bias  string // "bullish", "bearish" or "neutral"
}

// TrendSignal is the final output of the strategy engine.
type TrendSignal struct {
	Factors    []FactorScore
	TotalScore float64
	Tier       TrendTier
	WarningMsg string
}
