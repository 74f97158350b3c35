package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"TrendSentinel/internal/model"
)

type slopeRow struct {
	Index           int    `csv:"index"`
	Time            string `csv:"time"`
	SupportSlope    string `csv:"support_slope"`
	ResistanceSlope string `csv:"resistance_slope"`
}

// CSVRecorder writes one CSV file of aligned slopes per scan run.
type CSVRecorder struct {
	Dir string
}

func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create csv dir: %w", err)
	}
	return &CSVRecorder{Dir: dir}, nil
}

// Path returns the file a record is written to.
func (c *CSVRecorder) Path(rec *ScanRecord) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%s-%s.csv", rec.Symbol, rec.RunID))
}

func (c *CSVRecorder) RecordScan(rec *ScanRecord) error {
	s := rec.Series
	rows := make([]*slopeRow, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		row := &slopeRow{
			Index:           i,
			SupportSlope:    formatSlope(s.Support[i]),
			ResistanceSlope: formatSlope(s.Resistance[i]),
		}
		if i < len(s.Times) && !s.Times[i].IsZero() {
			row.Time = s.Times[i].UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	path := c.Path(rec)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Debugf("wrote %d slope rows to %s", len(rows), path)
	return nil
}

func (c *CSVRecorder) Close() error { return nil }

// formatSlope leaves absent values blank.
func formatSlope(v model.Slope) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Value, 'g', -1, 64)
}
