package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"TrendSentinel/internal/model"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/scheduler"
	"TrendSentinel/internal/tracker"
)

var scanCmd = &cobra.Command{
	Use:          "scan",
	Short:        "Run one scan and print the trailing slopes",
	SilenceUsage: true,
	RunE:         runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rows, err := cmd.Flags().GetInt("rows")
	if err != nil {
		return fmt.Errorf("error getting rows: %w", err)
	}
	record, err := cmd.Flags().GetBool("record")
	if err != nil {
		return fmt.Errorf("error getting record: %w", err)
	}

	sc, err := newScanner(cfg)
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}
	tm, err := tracker.NewManager(cfg.Tracker.StateFile)
	if err != nil {
		return fmt.Errorf("init tracker: %w", err)
	}
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if record {
		rec = newRecorder(cfg)
	}
	defer rec.Close()

	sched := scheduler.NewScheduler(cmd.Context(), newCollector(cfg), sc, tm, notifier.NoopNotifier{}, rec)
	rep, err := sched.RunScan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	out := cmd.OutOrStdout()
	renderSlopes(out, rep.Series, rows)
	if rep.Signal != nil {
		renderSignal(out, rep.Snapshot, rep.Signal, rep.Changes)
	}
	return nil
}

// renderSlopes prints the last rows of the slope series. Absent values print as "-".
func renderSlopes(w io.Writer, s *model.SlopeSeries, rows int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "time", "support slope", "resistance slope"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	start := max(s.Len()-rows, 0)
	for i := start; i < s.Len(); i++ {
		ts := ""
		if i < len(s.Times) && !s.Times[i].IsZero() {
			ts = s.Times[i].UTC().Format("2006-01-02 15:04")
		}
		table.Append([]string{strconv.Itoa(i), ts, fmtSlope(s.Support[i]), fmtSlope(s.Resistance[i])})
	}
	table.Render()
	fmt.Fprintf(w, "%s: %d bars, %d windows, %d degenerate\n", s.Symbol, s.Len(), s.Ready(), s.Degenerate)
}

func renderSignal(w io.Writer, snap *model.TrendSnapshot, sig *model.TrendSignal, changes []string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"factor", "raw", "weight", "weighted", "note"})
	for _, f := range sig.Factors {
		table.Append([]string{
			f.Name,
			fmt.Sprintf("%+.1f", f.RawScore),
			fmt.Sprintf("%.2f", f.Weight),
			fmt.Sprintf("%+.3f", f.Weighted),
			f.Commentary,
		})
	}
	table.SetFooter([]string{"total", "", "", fmt.Sprintf("%+.3f", sig.TotalScore), sig.Tier.Label})
	table.Render()

	fmt.Fprintf(w, "close %.4f  support %.4f  resistance %.4f  position %.0f%%  rsi %.1f\n",
		snap.Close, snap.SupportLevel, snap.ResistanceLevel, snap.Position*100, snap.RSI)
	for _, c := range changes {
		fmt.Fprintf(w, "change: %s\n", c)
	}
	if sig.WarningMsg != "" {
		fmt.Fprintln(w, sig.WarningMsg)
	}
}

func fmtSlope(v model.Slope) string {
	if !v.Valid {
		return "-"
	}
	return strconv.FormatFloat(v.Value, 'f', 6, 64)
}
