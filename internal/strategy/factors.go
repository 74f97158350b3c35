package strategy

import (
	"fmt"

	"TrendSentinel/internal/model"
)

// slopeScore grades a slope given in percent per bar.
func slopeScore(pct float64) float64 {
	switch {
	case pct >= 0.5:
		return 2.0
	case pct >= 0.2:
		return 1.5
	case pct >= 0.05:
		return 1.0
	case pct >= 0.01:
		return 0.5
	case pct > -0.01:
		return 0
	case pct > -0.05:
		return -0.5
	case pct > -0.2:
		return -1.0
	case pct > -0.5:
		return -1.5
	default:
		return -2.0
	}
}

// scoreSupportSlope scores the direction of the support line.
// Weight: 0.30
func scoreSupportSlope(snap *model.TrendSnapshot) model.FactorScore {
	score := slopeScore(snap.SupportPct)
	return model.FactorScore{
		Name:       "support slope",
		RawScore:   score,
		Weight:     0.30,
		Weighted:   score * 0.30,
		Commentary: fmt.Sprintf("%+.3f%%/bar", snap.SupportPct),
	}
}

// scoreResistanceSlope scores the direction of the resistance line.
// Weight: 0.25
func scoreResistanceSlope(snap *model.TrendSnapshot) model.FactorScore {
	score := slopeScore(snap.ResistancePct)
	return model.FactorScore{
		Name:       "resistance slope",
		RawScore:   score,
		Weight:     0.25,
		Weighted:   score * 0.25,
		Commentary: fmt.Sprintf("%+.3f%%/bar", snap.ResistancePct),
	}
}

// scoreConvergence scores wedges: a rising wedge tends to break down and a
// falling wedge tends to break up.
// Weight: 0.10
func scoreConvergence(snap *model.TrendSnapshot) model.FactorScore {
	ratio := 1.0
	if snap.WidthStart > 0 {
		ratio = snap.WidthEnd / snap.WidthStart
	}
	converging := ratio < 0.8
	rising := snap.SupportPct > 0 && snap.ResistancePct > 0
	falling := snap.SupportPct < 0 && snap.ResistancePct < 0

	var score float64
	var commentary string
	switch {
	case converging && rising:
		score, commentary = -1.0, "rising wedge"
	case converging && falling:
		score, commentary = 1.0, "falling wedge"
	case converging:
		score, commentary = 0, "triangle"
	case ratio > 1.25:
		score, commentary = 0, "broadening"
	default:
		score, commentary = 0, "parallel channel"
	}

	return model.FactorScore{
		Name:       "channel shape",
		RawScore:   score,
		Weight:     0.10,
		Weighted:   score * 0.10,
		Commentary: fmt.Sprintf("%s, width x%.2f", commentary, ratio),
	}
}

// scoreChannelPosition scores where the last close sits between the lines.
// Weight: 0.20
func scoreChannelPosition(snap *model.TrendSnapshot) model.FactorScore {
	pos := snap.Position * 100

	var score float64
	switch {
	case pos <= 10:
		score = 1.5
	case pos <= 30:
		score = 1.0
	case pos <= 70:
		score = 0
	case pos <= 90:
		score = -1.0
	default:
		score = -1.5
	}

	return model.FactorScore{
		Name:       "channel position",
		RawScore:   score,
		Weight:     0.20,
		Weighted:   score * 0.20,
		Commentary: fmt.Sprintf("position=%.0f%%", pos),
	}
}

// scoreMomentum scores RSI(14) over the window.
// Weight: 0.15
func scoreMomentum(snap *model.TrendSnapshot) model.FactorScore {
	rsi := snap.RSI
	var score float64
	switch {
	case rsi <= 25:
		score = 1.5
	case rsi <= 40:
		score = 1.0
	case rsi <= 60:
		score = 0
	case rsi <= 75:
		score = -1.0
	default:
		score = -1.5
	}

	return model.FactorScore{
		Name:       "momentum",
		RawScore:   score,
		Weight:     0.15,
		Weighted:   score * 0.15,
		Commentary: fmt.Sprintf("RSI=%.0f", rsi),
	}
}
