package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SpotSentinel/internal/model"
)

// SQLiteRecorder persists day reports to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_stats (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL UNIQUE,
			timestamp    INTEGER NOT NULL,
			region       TEXT NOT NULL,
			timezone     TEXT NOT NULL,
			day          TEXT NOT NULL,
			window_start INTEGER NOT NULL,
			window_end   INTEGER NOT NULL,
			unit         TEXT,
			license_info TEXT,
			mean_price   REAL,
			min_price    REAL,
			max_price    REAL,
			sample_count INTEGER,
			dropped      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_region_day ON daily_stats(region, day)`,

		`CREATE TABLE IF NOT EXISTS price_samples (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			seq          INTEGER NOT NULL,
			unix_seconds INTEGER NOT NULL,
			price        REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_run ON price_samples(run_id, seq)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDay(report *model.DayReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s := report.Summary
	if _, err := tx.Exec(`INSERT INTO daily_stats
		(run_id, timestamp, region, timezone, day, window_start, window_end,
		 unit, license_info, mean_price, min_price, max_price, sample_count, dropped)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		report.RunID, report.GeneratedAt.Unix(), report.Region, report.Day.Zone, report.Day.String(),
		report.Window.Start.Unix(), report.Window.End.Unix(),
		report.Series.Unit, report.LicenseInfo, s.Mean, s.Min, s.Max, s.Count, report.Dropped,
	); err != nil {
		return fmt.Errorf("insert daily_stats: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO price_samples (run_id, seq, unix_seconds, price) VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare price_samples: %w", err)
	}
	defer stmt.Close()
	for i, sample := range report.Series.Samples {
		if _, err := stmt.Exec(report.RunID, i, sample.UnixSeconds, sample.Price); err != nil {
			return fmt.Errorf("insert price_samples: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) LoadDay(region, day string) (*model.DayReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		rep              model.DayReport
		generated        int64
		winStart, winEnd int64
		dayStr           string
	)
	err := r.db.QueryRow(`SELECT run_id, timestamp, region, timezone, day, window_start, window_end,
			unit, license_info, mean_price, min_price, max_price, sample_count, dropped
		FROM daily_stats WHERE region = ? AND day = ? ORDER BY id DESC LIMIT 1`, region, day).
		Scan(&rep.RunID, &generated, &rep.Region, &rep.Day.Zone, &dayStr, &winStart, &winEnd,
			&rep.Series.Unit, &rep.LicenseInfo, &rep.Summary.Mean, &rep.Summary.Min, &rep.Summary.Max,
			&rep.Summary.Count, &rep.Dropped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query daily_stats: %w", err)
	}

	d, err := time.Parse(model.DateLayout, dayStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored day %q: %w", dayStr, err)
	}
	rep.Day.Year, rep.Day.Month, rep.Day.Day = d.Date()
	rep.GeneratedAt = time.Unix(generated, 0).UTC()
	rep.Window = model.QueryWindow{Start: time.Unix(winStart, 0).UTC(), End: time.Unix(winEnd, 0).UTC()}

	rows, err := r.db.Query(`SELECT unix_seconds, price FROM price_samples WHERE run_id = ? ORDER BY seq`, rep.RunID)
	if err != nil {
		return nil, fmt.Errorf("query price_samples: %w", err)
	}
	defer rows.Close()
	rep.Series.Samples = []model.Sample{}
	for rows.Next() {
		var s model.Sample
		if err := rows.Scan(&s.UnixSeconds, &s.Price); err != nil {
			return nil, fmt.Errorf("scan price_samples: %w", err)
		}
		rep.Series.Samples = append(rep.Series.Samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price_samples: %w", err)
	}
	return &rep, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
