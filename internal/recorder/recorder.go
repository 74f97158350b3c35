package recorder

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"TrendSentinel/internal/model"
)

// ScanRecord holds everything produced by one scan run.
type ScanRecord struct {
	RunID     string
	Symbol    string
	Interval  string
	Lookback  int
	StartedAt time.Time
	Series    *model.SlopeSeries
	Signal    *model.TrendSignal // nil when the last window was not ready
	Snapshot  *model.TrendSnapshot
}

// NewScanRecord stamps a record with a fresh run ID.
func NewScanRecord(interval string, startedAt time.Time, series *model.SlopeSeries) *ScanRecord {
	return &ScanRecord{
		RunID:     uuid.NewString(),
		Symbol:    series.Symbol,
		Interval:  interval,
		Lookback:  series.Lookback,
		StartedAt: startedAt,
		Series:    series,
	}
}

// ErrNoRuns is returned when no run has been recorded for a symbol.
var ErrNoRuns = errors.New("no recorded runs")

// Recorder persists scan runs for later analysis.
type Recorder interface {
	RecordScan(rec *ScanRecord) error
	Close() error
}

// RunReader is implemented by recorders that can read back their history.
type RunReader interface {
	LatestRun(symbol string) (time.Time, string, error)
}

// MultiRecorder fans a record out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordScan(rec *ScanRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordScan(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiRecorder) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LatestRun asks each member that can read history, in order.
func (m MultiRecorder) LatestRun(symbol string) (time.Time, string, error) {
	for _, r := range m {
		reader, ok := r.(RunReader)
		if !ok {
			continue
		}
		ts, label, err := reader.LatestRun(symbol)
		if err == nil {
			return ts, label, nil
		}
		if !errors.Is(err, ErrNoRuns) {
			return time.Time{}, "", err
		}
	}
	return time.Time{}, "", ErrNoRuns
}
