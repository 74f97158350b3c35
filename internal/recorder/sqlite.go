package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"TrendSentinel/internal/model"
)

// SQLiteRecorder persists scan runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while scans write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			run_id          TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			interval        TEXT,
			lookback        INTEGER,
			bars            INTEGER,
			ready           INTEGER,
			degenerate      INTEGER,
			support_slope   REAL,
			resist_slope    REAL,
			close_price     REAL,
			channel_pos     REAL,
			rsi             REAL,
			total_score     REAL,
			tier_label      TEXT,
			warning         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON scan_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS slope_points (
			run_id        TEXT NOT NULL,
			idx           INTEGER NOT NULL,
			bar_time      INTEGER,
			support_slope REAL,
			resist_slope  REAL,
			PRIMARY KEY (run_id, idx)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan writes the run summary and every aligned slope in one transaction.
// Absent slopes are stored as NULL.
func (r *SQLiteRecorder) RecordScan(rec *ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s := rec.Series
	var (
		supSlope, resSlope   sql.NullFloat64
		closePrice, pos, rsi sql.NullFloat64
		score                sql.NullFloat64
		tierLabel, warning   sql.NullString
	)
	if last := lastValid(s); last >= 0 {
		supSlope = nullFloat(s.Support[last])
		resSlope = nullFloat(s.Resistance[last])
	}
	if snap := rec.Snapshot; snap != nil {
		closePrice = sql.NullFloat64{Float64: snap.Close, Valid: true}
		pos = sql.NullFloat64{Float64: snap.Position, Valid: true}
		rsi = sql.NullFloat64{Float64: snap.RSI, Valid: true}
	}
	if sig := rec.Signal; sig != nil {
		score = sql.NullFloat64{Float64: sig.TotalScore, Valid: true}
		tierLabel = sql.NullString{String: sig.Tier.Label, Valid: true}
		warning = sql.NullString{String: sig.WarningMsg, Valid: sig.WarningMsg != ""}
	}

	_, err = tx.Exec(`INSERT INTO scan_runs
		(run_id, timestamp, symbol, interval, lookback, bars, ready, degenerate,
		 support_slope, resist_slope, close_price, channel_pos, rsi,
		 total_score, tier_label, warning)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.StartedAt.Unix(), rec.Symbol, rec.Interval, rec.Lookback,
		s.Len(), s.Ready(), s.Degenerate,
		supSlope, resSlope, closePrice, pos, rsi,
		score, tierLabel, warning,
	)
	if err != nil {
		return fmt.Errorf("insert scan_runs: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO slope_points
		(run_id, idx, bar_time, support_slope, resist_slope) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare slope_points: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < s.Len(); i++ {
		var barTime sql.NullInt64
		if i < len(s.Times) && !s.Times[i].IsZero() {
			barTime = sql.NullInt64{Int64: s.Times[i].Unix(), Valid: true}
		}
		if _, err := stmt.Exec(rec.RunID, i, barTime, nullFloat(s.Support[i]), nullFloat(s.Resistance[i])); err != nil {
			return fmt.Errorf("insert slope_points[%d]: %w", i, err)
		}
	}

	return tx.Commit()
}

// LatestRun returns the timestamp and tier label of the newest run for symbol,
// or ErrNoRuns.
func (r *SQLiteRecorder) LatestRun(symbol string) (time.Time, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ts int64
	var label sql.NullString
	err := r.db.QueryRow(`SELECT timestamp, tier_label FROM scan_runs
		WHERE symbol = ? ORDER BY timestamp DESC LIMIT 1`, symbol).Scan(&ts, &label)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, "", ErrNoRuns
	}
	if err != nil {
		return time.Time{}, "", err
	}
	return time.Unix(ts, 0), label.String, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}

func nullFloat(v model.Slope) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Value, Valid: v.Valid}
}

func lastValid(s *model.SlopeSeries) int {
	for i := s.Len() - 1; i >= 0; i-- {
		if s.Support[i].Valid {
			return i
		}
	}
	return -1
}
