package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// ErrNoBars is returned when a fetcher returns an empty series.
var ErrNoBars = errors.New("no bars returned")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Data  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _, _ string, limit int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Data != nil {
		return m.Data, nil
	}
	return generateMockBars(m.Price, limit), nil
}

// generateMockBars builds a gently rising wave so that channels have some width.
func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().Truncate(time.Hour).Add(-time.Duration(count) * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.01*math.Sin(float64(i)/5))
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches the configured series and prepares it for scanning.
type Collector struct {
	Fetcher   Fetcher
	Symbol    string
	Interval  string
	Bars      int
	LogPrices bool
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, interval string, bars int, logPrices bool) *Collector {
	return &Collector{
		Fetcher:   fetcher,
		Symbol:    symbol,
		Interval:  interval,
		Bars:      bars,
		LogPrices: logPrices,
	}
}

// Collect fetches bars and, when LogPrices is set, converts prices to natural logs.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchBars(ctx, c.Symbol, c.Interval, c.Bars)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %s: %w", c.Symbol, c.Interval, ErrNoBars)
	}
	if len(bars) < c.Bars {
		log.WithFields(log.Fields{
			"source": c.Fetcher.Name(), "symbol": c.Symbol, "got": len(bars), "want": c.Bars,
		}).Warn("fetcher returned fewer bars than requested")
	}

	series := &model.PriceSeries{
		Symbol:    c.Symbol,
		Interval:  c.Interval,
		Bars:      bars,
		FetchedAt: time.Now(),
	}
	if c.LogPrices {
		logBars, err := calculator.LogBars(bars)
		if err != nil {
			return nil, fmt.Errorf("log transform: %w", err)
		}
		series.Bars = logBars
		series.LogScaled = true
	}
	return series, nil
}
