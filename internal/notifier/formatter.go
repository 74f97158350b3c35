package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TrendSentinel/internal/model"
)

// FormatScanReport formats the classified latest channel into a Telegram message.
func FormatScanReport(series *model.SlopeSeries, snap *model.TrendSnapshot, signal *model.TrendSignal, changes []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📐 <b>%s trendlines</b> | lookback %d\n", html.EscapeString(series.Symbol), series.Lookback))
	if series.Last != nil && !series.Last.Time.IsZero() {
		b.WriteString(fmt.Sprintf("Bar: %s\n", series.Last.Time.UTC().Format("2006-01-02 15:04")))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Close: %.4f\n", snap.Close))
	b.WriteString(fmt.Sprintf("Support: %.4f (%+.3f%%/bar)\n", snap.SupportLevel, snap.SupportPct))
	b.WriteString(fmt.Sprintf("Resistance: %.4f (%+.3f%%/bar)\n", snap.ResistanceLevel, snap.ResistancePct))
	b.WriteString(fmt.Sprintf("Channel position: %.0f%% | RSI: %.1f\n\n", snap.Position*100, snap.RSI))

	b.WriteString("📈 <b>Factors:</b>\n")
	for _, f := range signal.Factors {
		b.WriteString(fmt.Sprintf("  %s (%s): %+.1f ×%.2f = %+.3f\n",
			f.Name, f.Commentary, f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: %+.3f\n\n", signal.TotalScore))

	b.WriteString(fmt.Sprintf("🧭 <b>%s</b> (%s)\n", signal.Tier.Label, signal.Tier.Bias))

	if len(changes) > 0 {
		b.WriteString("\n🔔 Changes:\n")
		for _, c := range changes {
			b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(c)))
		}
	}
	if series.Degenerate > 0 {
		b.WriteString(fmt.Sprintf("\n%d window(s) had no feasible line\n", series.Degenerate))
	}
	if signal.WarningMsg != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", signal.WarningMsg))
	}

	return b.String()
}

// FormatNotReady is sent when there are fewer bars than the lookback.
func FormatNotReady(series *model.SlopeSeries) string {
	return fmt.Sprintf("⏳ <b>%s</b>: %d bars, need %d for a full window",
		html.EscapeString(series.Symbol), series.Len(), series.Lookback)
}

// FormatLatest formats the tracked state of a symbol.
func FormatLatest(st model.TrackerState, avgScore float64, samples int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>%s latest</b>\n\n", html.EscapeString(st.Symbol)))
	b.WriteString(fmt.Sprintf("Trend: %s (%+.3f)\n", st.Label, st.TotalScore))
	b.WriteString(fmt.Sprintf("Support slope: %+.6f\n", st.SupportSlope))
	b.WriteString(fmt.Sprintf("Resistance slope: %+.6f\n", st.ResistanceSlope))
	if samples > 0 {
		b.WriteString(fmt.Sprintf("Recent average: %+.3f (%d scans)\n", avgScore, samples))
	}
	b.WriteString(fmt.Sprintf("Last bar: %s\n", st.LastBarAt.UTC().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Updated: %s\n", st.UpdatedAt.Format(time.DateTime)))
	return b.String()
}

// FormatError formats a failure notice.
func FormatError(op string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s failed</b>\n%s", op, html.EscapeString(err.Error()))
}

// FormatHelp returns the command list.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>TrendSentinel commands</b>\n\n")
	b.WriteString("/scan - fit trendlines now\n")
	b.WriteString("/latest - last tracked channel\n")
	b.WriteString("/help - this message\n")
	return b.String()
}
