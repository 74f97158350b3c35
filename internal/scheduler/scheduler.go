package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/scanner"
	"TrendSentinel/internal/strategy"
	"TrendSentinel/internal/tracker"
)

const sendRetries = 3

// Report is the outcome of one scan run.
type Report struct {
	Prices   *model.PriceSeries
	Series   *model.SlopeSeries
	Snapshot *model.TrendSnapshot // nil when the last window is not ready
	Signal   *model.TrendSignal
	Changes  []string
	Record   *recorder.ScanRecord
	Message  string
}

// Scheduler runs scans on a cron schedule and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Scanner   *scanner.Scanner
	Tracker   *tracker.Manager
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	scanMu sync.Mutex
}

// NewScheduler creates a new Scheduler. Overlapping cron runs are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, sc *scanner.Scanner, tm *tracker.Manager, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	cronLog := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
		Collector: col,
		Scanner:   sc,
		Tracker:   tm,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// RegisterAll registers the scan task.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunScanNow executes the scheduled task immediately (for RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

// RunScan collects bars, scans them, classifies the latest channel, updates
// the tracker and records the run. It does not notify.
func (s *Scheduler) RunScan(ctx context.Context) (*Report, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	started := time.Now()
	prices, err := s.Collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	series, err := s.Scanner.Scan(ctx, prices)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	rep := &Report{Prices: prices, Series: series}
	rep.Record = recorder.NewScanRecord(prices.Interval, started, series)

	snap, err := strategy.NewSnapshot(prices, series.Last, s.Scanner.Lookback())
	switch {
	case errors.Is(err, strategy.ErrWindowNotReady):
		rep.Message = notifier.FormatNotReady(series)
	case err != nil:
		return nil, fmt.Errorf("snapshot: %w", err)
	default:
		rep.Snapshot = snap
		rep.Signal = strategy.Evaluate(snap)
		rep.Changes = s.Tracker.Update(series.Symbol, series.Last.Time, snap, rep.Signal)
		rep.Record.Snapshot = snap
		rep.Record.Signal = rep.Signal
		rep.Message = notifier.FormatScanReport(series, snap, rep.Signal, rep.Changes)
	}

	if err := s.Recorder.RecordScan(rep.Record); err != nil {
		log.Errorf("record scan: %v", err)
	}

	log.WithFields(log.Fields{
		"symbol":     series.Symbol,
		"run_id":     rep.Record.RunID,
		"bars":       series.Len(),
		"ready":      series.Ready(),
		"degenerate": series.Degenerate,
		"elapsed":    time.Since(started).Round(time.Millisecond),
	}).Info("scan finished")
	return rep, nil
}

func (s *Scheduler) scanTask() {
	log.Info("running scan task")
	rep, err := s.RunScan(s.Ctx)
	if err != nil {
		log.Errorf("scan task: %v", err)
		s.trySend(notifier.FormatError("scan", err))
		return
	}
	// Scheduled runs only speak up when something moved.
	if len(rep.Changes) > 0 || (rep.Signal != nil && rep.Signal.WarningMsg != "") {
		s.trySend(rep.Message)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Telegram group chats append the bot name: /scan@MyBot
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/scan":
		rep, err := s.RunScan(ctx)
		if err != nil {
			return notifier.FormatError("scan", err)
		}
		return rep.Message
	case "/latest":
		symbol := s.Collector.Symbol
		st, ok := s.Tracker.GetState(symbol)
		if !ok {
			return s.latestFromHistory(symbol)
		}
		avg, n := s.Tracker.AverageScore(symbol)
		return notifier.FormatLatest(st, avg, n)
	default:
		return notifier.FormatHelp()
	}
}

// latestFromHistory answers /latest from the recorder when the tracker has no state.
func (s *Scheduler) latestFromHistory(symbol string) string {
	if reader, ok := s.Recorder.(recorder.RunReader); ok {
		ts, label, err := reader.LatestRun(symbol)
		switch {
		case err == nil && label != "":
			return fmt.Sprintf("Last recorded scan for %s: %s at %s", symbol, label, ts.Format(time.DateTime))
		case err != nil && !errors.Is(err, recorder.ErrNoRuns):
			log.Errorf("read latest run: %v", err)
		}
	}
	return fmt.Sprintf("No scan recorded for %s yet. Try /scan", symbol)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		log.Errorf("send notification: %v", err)
	}
}
