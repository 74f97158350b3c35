package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/scanner"
	"TrendSentinel/internal/tracker"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

type countingRecorder struct {
	records []*recorder.ScanRecord
}

func (c *countingRecorder) RecordScan(rec *recorder.ScanRecord) error {
	c.records = append(c.records, rec)
	return nil
}
func (c *countingRecorder) Close() error { return nil }

func newTestScheduler(t *testing.T, fetcher collector.Fetcher, bars int) (*Scheduler, *captureNotifier, *countingRecorder) {
	t.Helper()
	sc, err := scanner.New(30)
	require.NoError(t, err)
	tm, err := tracker.NewManager("")
	require.NoError(t, err)

	n := &captureNotifier{}
	rec := &countingRecorder{}
	col := collector.NewCollector(fetcher, "TEST", "1h", bars, true)
	return NewScheduler(context.Background(), col, sc, tm, n, rec), n, rec
}

func TestRunScan(t *testing.T) {
	s, _, rec := newTestScheduler(t, &collector.MockFetcher{Price: 100}, 120)

	rep, err := s.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 120, rep.Series.Len())
	assert.Equal(t, 91, rep.Series.Ready())
	require.NotNil(t, rep.Snapshot)
	require.NotNil(t, rep.Signal)
	assert.Equal(t, []string{"first scan: " + rep.Signal.Tier.Label}, rep.Changes)
	assert.Contains(t, rep.Message, "TEST trendlines")

	require.Len(t, rec.records, 1)
	assert.Same(t, rep.Signal, rec.records[0].Signal)
	assert.Equal(t, "1h", rec.records[0].Interval)

	// Same bars again: nothing new for the tracker.
	rep, err = s.RunScan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Changes)
}

func TestRunScan_NotReady(t *testing.T) {
	s, _, rec := newTestScheduler(t, &collector.MockFetcher{Price: 100}, 10)

	rep, err := s.RunScan(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rep.Snapshot)
	assert.Nil(t, rep.Signal)
	assert.Equal(t, 0, rep.Series.Ready())
	assert.Contains(t, rep.Message, "need 30")
	assert.Len(t, rec.records, 1)
}

func TestScanTask_NotifiesOnChangeAndError(t *testing.T) {
	s, n, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100}, 120)

	s.RunScanNow()
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "first scan")

	s.Collector.Fetcher = &collector.MockFetcher{Err: errors.New("exchange down")}
	s.RunScanNow()
	require.Len(t, n.sent, 2)
	assert.Contains(t, n.sent[1], "scan failed")
	assert.Contains(t, n.sent[1], "exchange down")
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100}, 120)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/latest"), "No scan recorded for TEST")
	assert.Contains(t, s.HandleCommand(ctx, "/scan@TrendBot"), "TEST trendlines")
	assert.Contains(t, s.HandleCommand(ctx, "/latest"), "TEST latest")

	for _, cmd := range []string{"/help", "hello", "   "} {
		assert.True(t, strings.Contains(s.HandleCommand(ctx, cmd), "/scan"), cmd)
	}
}

type historyRecorder struct {
	countingRecorder
	at    time.Time
	label string
	err   error
}

func (h *historyRecorder) LatestRun(string) (time.Time, string, error) {
	return h.at, h.label, h.err
}

func TestHandleCommand_LatestFallsBackToHistory(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100}, 120)
	ctx := context.Background()

	at := time.Date(2024, 7, 1, 9, 30, 0, 0, time.Local)
	s.Recorder = &historyRecorder{at: at, label: "Downtrend"}
	assert.Equal(t, "Last recorded scan for TEST: Downtrend at 2024-07-01 09:30:00", s.HandleCommand(ctx, "/latest"))

	s.Recorder = &historyRecorder{err: recorder.ErrNoRuns}
	assert.Contains(t, s.HandleCommand(ctx, "/latest"), "No scan recorded for TEST")
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100}, 120)
	require.NoError(t, s.RegisterAll("0 5 * * * *"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.RegisterAll("not a cron"))
}
