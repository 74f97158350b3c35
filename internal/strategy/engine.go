package strategy

import (
	"fmt"

	"TrendSentinel/internal/model"
)

// Tiers maps total scores to channel labels, highest first.
var Tiers = []struct {
	MinScore float64
	Tier     model.TrendTier
}{
	{1.0, model.TrendTier{Label: "Strong uptrend", Bias: "bullish"}},
	{0.4, model.TrendTier{Label: "Uptrend", Bias: "bullish"}},
	{-0.4, model.TrendTier{Label: "Range", Bias: "neutral"}},
	{-1.0, model.TrendTier{Label: "Downtrend", Bias: "bearish"}},
}

// DefaultTier is the lowest tier for scores < -1.0.
var DefaultTier = model.TrendTier{Label: "Strong downtrend", Bias: "bearish"}

// mapTier maps a total score to a TrendTier.
func mapTier(totalScore float64) model.TrendTier {
	for _, t := range Tiers {
		if totalScore >= t.MinScore {
			return t.Tier
		}
	}
	return DefaultTier
}

// Evaluate scores the latest channel.
func Evaluate(snap *model.TrendSnapshot) *model.TrendSignal {
	factors := []model.FactorScore{
		scoreSupportSlope(snap),
		scoreResistanceSlope(snap),
		scoreConvergence(snap),
		scoreChannelPosition(snap),
		scoreMomentum(snap),
	}

	var totalScore float64
	for _, f := range factors {
		totalScore += f.Weighted
	}

	signal := &model.TrendSignal{
		Factors:    factors,
		TotalScore: totalScore,
		Tier:       mapTier(totalScore),
	}

	switch {
	case snap.WidthStart > 0 && snap.WidthEnd < 0.2*snap.WidthStart:
		signal.WarningMsg = fmt.Sprintf("⚠️ channel narrowed to %.0f%% of its width: breakout likely",
			snap.WidthEnd/snap.WidthStart*100)
	case snap.RSI > 85 || snap.RSI < 15:
		signal.WarningMsg = fmt.Sprintf("⚠️ RSI %.0f: price stretched", snap.RSI)
	}

	return signal
}
