package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"TrendSentinel/internal/model"
)

var normalizeHeaders sync.Once

// csvBarDTO is one row of a bar file. Values stay strings until toModel so
// that blank cells and mixed timestamp formats can be handled per row.
type csvBarDTO struct {
	Date      string `csv:"date"`
	Time      string `csv:"time"`
	Timestamp string `csv:"timestamp"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		// Epoch milliseconds are 13 digits for any date after 2001.
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

// errBlankCell marks an empty value; callers decide whether that is allowed.
var errBlankCell = errors.New("blank cell")

func parsePrice(name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errBlankCell
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: non-finite value %q", name, raw)
	}
	return v, nil
}

// toModel converts a row. Blank open/high/low/close cells are reported in
// missing and leave the bar incomplete; a blank volume reads as 0.
func (d *csvBarDTO) toModel() (bar model.OHLCV, missing []string, err error) {
	stamp := d.Date
	if stamp == "" {
		stamp = d.Time
	}
	if stamp == "" {
		stamp = d.Timestamp
	}
	t, err := parseTime(stamp)
	if err != nil {
		return model.OHLCV{}, nil, err
	}

	bar = model.OHLCV{Time: t}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", d.Open, &bar.Open},
		{"high", d.High, &bar.High},
		{"low", d.Low, &bar.Low},
		{"close", d.Close, &bar.Close},
		{"volume", d.Volume, &bar.Volume},
	}
	for _, f := range fields {
		v, err := parsePrice(f.name, f.raw)
		switch {
		case errors.Is(err, errBlankCell):
			if f.name != "volume" {
				missing = append(missing, f.name)
			}
		case err != nil:
			return model.OHLCV{}, nil, err
		default:
			*f.dst = v
		}
	}
	return bar, missing, nil
}

// CSVFetcher reads bars from a local CSV file with a date/open/high/low/close/volume header.
type CSVFetcher struct {
	Path string
}

// NewCSVFetcher creates a fetcher for the given file.
func NewCSVFetcher(path string) *CSVFetcher {
	normalizeHeaders.Do(func() {
		gocsv.SetHeaderNormalizer(func(h string) string {
			return strings.ToLower(strings.TrimSpace(h))
		})
	})
	return &CSVFetcher{Path: path}
}

func (f *CSVFetcher) Name() string { return "csv" }

// FetchBars returns the last limit bars of the file. symbol and interval are
// informational; the file holds a single series.
func (f *CSVFetcher) FetchBars(_ context.Context, _, _ string, limit int) ([]model.OHLCV, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	var rows []*csvBarDTO
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", f.Path, err)
	}

	bars := make([]model.OHLCV, 0, len(rows))
	for i, row := range rows {
		bar, missing, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i+2, err)
		}
		switch {
		case len(missing) == 4:
			continue // blank bar
		case len(missing) > 0:
			log.WithFields(log.Fields{
				"file": f.Path, "row": i + 2, "missing": strings.Join(missing, ","),
			}).Warn("skipping csv row with missing prices")
			continue
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}
