package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.SendWithRetry(context.Background(), "<b>hi</b>", 0))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestTelegramNotifier_SendWithRetryStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := n.SendWithRetry(ctx, "x", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), calls.Load())
}

func TestTelegramNotifier_SendWithRetryExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad chat", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.SendWithRetry(context.Background(), "x", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 retries exhausted")
	assert.Contains(t, err.Error(), "status 400")
}

func TestFormatScanReport(t *testing.T) {
	series := &model.SlopeSeries{
		Symbol:     "BTC<USDT>",
		Lookback:   30,
		Degenerate: 2,
		Last:       &model.WindowFit{Time: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	snap := &model.TrendSnapshot{Close: 100, SupportLevel: 95, ResistanceLevel: 105, SupportPct: 0.25, ResistancePct: -0.1, Position: 0.5, RSI: 48}
	signal := &model.TrendSignal{
		Factors:    []model.FactorScore{{Name: "support slope", RawScore: 1, Weight: 0.3, Weighted: 0.3, Commentary: "rising"}},
		TotalScore: 0.3,
		Tier:       model.TrendTier{Label: "Range", Bias: "neutral"},
		WarningMsg: "channel narrowing",
	}

	msg := FormatScanReport(series, snap, signal, []string{"Uptrend → Range"})
	assert.Contains(t, msg, "BTC&lt;USDT&gt;")
	assert.Contains(t, msg, "Bar: 2024-06-01 12:00")
	assert.Contains(t, msg, "Support: 95.0000 (+0.250%/bar)")
	assert.Contains(t, msg, "Channel position: 50%")
	assert.Contains(t, msg, "support slope (rising): +1.0 ×0.30 = +0.300")
	assert.Contains(t, msg, "<b>Range</b> (neutral)")
	assert.Contains(t, msg, "Uptrend → Range")
	assert.Contains(t, msg, "2 window(s) had no feasible line")
	assert.Contains(t, msg, "channel narrowing")
}

func TestFormatLatestAndHelp(t *testing.T) {
	st := model.TrackerState{Symbol: "ETH", Label: "Uptrend", TotalScore: 0.55, LastBarAt: time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)}
	msg := FormatLatest(st, 0.4, 3)
	assert.Contains(t, msg, "Trend: Uptrend (+0.550)")
	assert.Contains(t, msg, "Recent average: +0.400 (3 scans)")
	assert.Contains(t, msg, "Last bar: 2024-01-02 03:00")

	assert.NotContains(t, FormatLatest(st, 0, 0), "Recent average")

	help := FormatHelp()
	for _, cmd := range []string{"/scan", "/latest", "/help"} {
		assert.Contains(t, help, cmd)
	}

	assert.Equal(t, "⚠️ <b>scan failed</b>\na &lt; b", FormatError("scan", errors.New("a < b")))
}
