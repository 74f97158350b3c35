package collector

import (
	"context"

	"TrendSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
// Implementations return bars in chronological order.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error)
	Name() string
}
