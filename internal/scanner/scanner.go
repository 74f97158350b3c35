// Package scanner slides a fixed-size window over a price series and fits
// support and resistance lines in every window.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"TrendSentinel/internal/model"
	"TrendSentinel/internal/trendline"
)

// DefaultLookback is the window length used when none is configured.
const DefaultLookback = 30

// ErrLookbackTooSmall is returned for windows that cannot hold a line fit.
var ErrLookbackTooSmall = errors.New("lookback must be at least 2")

// WindowFitter fits support and resistance lines to one window.
// The default is a *trendline.Fitter with default params.
type WindowFitter interface {
	FitHighLow(high, low, close []float64) (model.TrendlinePair, error)
}

// Scanner fits trendlines over consecutive windows of a series.
type Scanner struct {
	lookback int
	workers  int
	fitter   WindowFitter
	logger   log.FieldLogger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers fits windows concurrently on n goroutines. Windows share no state,
// so the output equals the sequential scan.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithFitter replaces the default fitter.
func WithFitter(f WindowFitter) Option {
	return func(s *Scanner) {
		if f != nil {
			s.fitter = f
		}
	}
}

// WithLogger sets the logger used for degenerate windows.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scanner for the given window length.
func New(lookback int, opts ...Option) (*Scanner, error) {
	if lookback < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrLookbackTooSmall, lookback)
	}
	s := &Scanner{
		lookback: lookback,
		workers:  1,
		fitter:   trendline.NewFitter(trendline.DefaultParams()),
		logger:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lookback returns the window length.
func (s *Scanner) Lookback() int { return s.lookback }

// FitWindow fits the window ending at index end. The returned WindowFit has
// Ready == false when fewer than lookback bars end at that index.
func (s *Scanner) FitWindow(series *model.PriceSeries, end int) (model.WindowFit, error) {
	wf := model.WindowFit{Index: end}
	if end >= 0 && end < series.Len() {
		wf.Time = series.Bars[end].Time
	}
	if end < s.lookback-1 || end >= series.Len() {
		return wf, nil
	}

	window := model.PriceSeries{Bars: series.Window(end, s.lookback)}
	lines, err := s.fitter.FitHighLow(window.Highs(), window.Lows(), window.Closes())
	if err != nil {
		return wf, fmt.Errorf("window ending at %d: %w", end, err)
	}
	wf.Ready = true
	wf.Lines = lines
	return wf, nil
}

// All returns a lazy, single-pass sequence of window fits, one per bar, in
// bar order (WindowFit.Index). Bars before the first full window yield a
// WindowFit with Ready == false. A window that fails to fit is yielded once
// with its error and ends the sequence.
func (s *Scanner) All(series *model.PriceSeries) iter.Seq2[model.WindowFit, error] {
	return func(yield func(model.WindowFit, error) bool) {
		for i := 0; i < series.Len(); i++ {
			wf, err := s.FitWindow(series, i)
			if err != nil {
				yield(wf, err)
				return
			}
			if !yield(wf, nil) {
				return
			}
		}
	}
}

// Scan fits every window of series and returns support and resistance slopes
// aligned with its bars. ctx is checked between windows.
func (s *Scanner) Scan(ctx context.Context, series *model.PriceSeries) (*model.SlopeSeries, error) {
	n := series.Len()
	out := &model.SlopeSeries{
		Symbol:     series.Symbol,
		Lookback:   s.lookback,
		Times:      make([]time.Time, n),
		Support:    make([]model.Slope, n),
		Resistance: make([]model.Slope, n),
	}
	for i, b := range series.Bars {
		out.Times[i] = b.Time
	}
	if n < s.lookback {
		s.logger.WithFields(log.Fields{"symbol": series.Symbol, "bars": n, "lookback": s.lookback}).
			Warn("not enough bars for a full window")
		return out, nil
	}

	fits := make([]model.WindowFit, n)
	if s.workers > 1 {
		if err := s.fitParallel(ctx, series, fits); err != nil {
			return nil, err
		}
	} else {
		for i := s.lookback - 1; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			wf, err := s.FitWindow(series, i)
			if err != nil {
				return nil, err
			}
			fits[i] = wf
		}
	}

	for i := s.lookback - 1; i < n; i++ {
		wf := fits[i]
		out.Support[i] = model.Slope{Value: wf.Lines.Support.Slope, Valid: true}
		out.Resistance[i] = model.Slope{Value: wf.Lines.Resistance.Slope, Valid: true}
		if wf.Lines.Support.Degenerate() || wf.Lines.Resistance.Degenerate() {
			out.Degenerate++
			s.logger.WithFields(log.Fields{"symbol": series.Symbol, "index": i}).
				Warn("optimizer started from an infeasible slope")
		}
	}
	last := fits[n-1]
	out.Last = &last
	return out, nil
}

func (s *Scanner) fitParallel(ctx context.Context, series *model.PriceSeries, fits []model.WindowFit) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := s.lookback - 1; i < series.Len(); i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wf, err := s.FitWindow(series, i)
			if err != nil {
				return err
			}
			fits[i] = wf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
