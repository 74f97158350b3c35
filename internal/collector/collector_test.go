package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVFetcher(t *testing.T) {
	path := writeFile(t, `Date,Open,High,Low,Close,Volume
2024-01-01 02:00:00,12,13,11,12.5,100
2024-01-01 00:00:00,10,11,9,10.5,100
2024-01-01 01:00:00,11,12,10,11.5,
`)

	bars, err := NewCSVFetcher(path).FetchBars(context.Background(), "BTCUSDT", "1h", 0)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 12.0, bars[1].High)
	assert.Equal(t, 0.0, bars[1].Volume)
	assert.Equal(t, 12.5, bars[2].Close)

	last, err := NewCSVFetcher(path).FetchBars(context.Background(), "", "", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, 11.5, last[0].Close)
}

func TestCSVFetcher_EpochAndErrors(t *testing.T) {
	path := writeFile(t, "timestamp,open,high,low,close\n1704067200,1,2,0.5,1.5\n1704070800000,1.5,2.5,1,2\n")
	bars, err := NewCSVFetcher(path).FetchBars(context.Background(), "", "", 0)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Unix(1704067200, 0).UTC(), bars[0].Time)
	assert.Equal(t, time.Unix(1704070800, 0).UTC(), bars[1].Time)

	bad := writeFile(t, "date,open,high,low,close\nyesterday,1,2,0.5,1.5\n")
	_, err = NewCSVFetcher(bad).FetchBars(context.Background(), "", "", 0)
	assert.Error(t, err)

	_, err = NewCSVFetcher(filepath.Join(t.TempDir(), "missing.csv")).FetchBars(context.Background(), "", "", 0)
	assert.Error(t, err)
}

func TestCSVFetcher_SkipsRowsWithMissingPrices(t *testing.T) {
	path := writeFile(t, `date,open,high,low,close,volume
2024-01-01,10,11,9,10.5,1
2024-01-02,10,11,,10.5,1
2024-01-03,,,,,
2024-01-04,11,12,10,11.5,1
`)

	bars, err := NewCSVFetcher(path).FetchBars(context.Background(), "", "", 0)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), bars[1].Time)
	for _, b := range bars {
		assert.Greater(t, b.Low, 0.0)
	}

	col := NewCollector(NewCSVFetcher(path), "X", "1d", 2, true)
	series, err := col.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())
}

func TestCSVFetcher_RejectsNonFinitePrices(t *testing.T) {
	path := writeFile(t, "date,open,high,low,close\n2024-01-01,1,2,NaN,1.5\n")
	_, err := NewCSVFetcher(path).FetchBars(context.Background(), "", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv row 2")
	assert.Contains(t, err.Error(), "non-finite")
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if r.URL.Query().Get("interval") == "1wk" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// Jan 1 and 2 of 2024 fall in ISO week 1, Jan 11 in week 2.
		w.Write([]byte(`[
			{"timestamp":1704931200,"open":10,"high":11,"low":9,"close":10,"volume":1},
			{"timestamp":1704067200,"open":1,"high":2,"low":0.5,"close":1.5,"volume":1},
			{"timestamp":1704153600,"open":1.5,"high":3,"low":1,"close":2,"volume":1}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchBars(context.Background(), "BTCUSDT", "1d", 3)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 1.5, bars[0].Close, "bars are sorted by time")

	weekly, err := f.FetchBars(context.Background(), "BTCUSDT", "1wk", 5)
	require.NoError(t, err)
	require.Len(t, weekly, 2)
	assert.Equal(t, 3.0, weekly[0].High)
	assert.Equal(t, 0.5, weekly[0].Low)
	assert.Equal(t, 2.0, weekly[0].Close)
	assert.Equal(t, 2.0, weekly[0].Volume)
}

func TestYahooFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/BTC-USD", r.URL.Path)
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1704067200,1704070800,1704074400],
			"indicators":{"quote":[{"open":[1,null,3],"high":[2,null,4],"low":[0.5,null,2.5],
			"close":[1.5,null,3.5],"volume":[10,null,30]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "BTCUSDT", "1h", 10)
	require.NoError(t, err)
	require.Len(t, bars, 2, "null bars are skipped")
	assert.Equal(t, 3.5, bars[1].Close)
	assert.Equal(t, 30.0, bars[1].Volume)
}

func TestYahooRange(t *testing.T) {
	assert.Equal(t, "1mo", yahooRange("1d", 20))
	assert.Equal(t, "1y", yahooRange("1d", 300))
	assert.Equal(t, "3mo", yahooRange("1h", 500))
	assert.Equal(t, "2y", yahooRange("1h", 100000))
	assert.Equal(t, "2y", yahooRange("1wk", 100))
}

func TestCollector_Collect(t *testing.T) {
	fetcher := &MockFetcher{Price: 100}

	raw, err := NewCollector(fetcher, "MOCK", "1h", 50, false).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, raw.Len())
	assert.False(t, raw.LogScaled)

	logged, err := NewCollector(fetcher, "MOCK", "1h", 50, true).Collect(context.Background())
	require.NoError(t, err)
	assert.True(t, logged.LogScaled)
	assert.Equal(t, "MOCK", logged.Symbol)
	for i := range raw.Bars {
		assert.InDelta(t, math.Log(raw.Bars[i].Close), logged.Bars[i].Close, 1e-12)
	}
}

func TestCollector_Errors(t *testing.T) {
	_, err := NewCollector(&MockFetcher{Err: errors.New("boom")}, "X", "1h", 10, false).Collect(context.Background())
	assert.ErrorContains(t, err, "boom")

	_, err = NewCollector(&MockFetcher{Data: []model.OHLCV{}}, "X", "1h", 10, false).Collect(context.Background())
	assert.ErrorIs(t, err, ErrNoBars)

	bad := []model.OHLCV{{Open: 1, High: 1, Low: -1, Close: 1}}
	_, err = NewCollector(&MockFetcher{Data: bad}, "X", "1h", 1, true).Collect(context.Background())
	assert.Error(t, err)
}
