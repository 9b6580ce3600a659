// Package storage persists downloaded price bars and run summaries in a
// local SQLite database (pure Go driver, no CGo). Bars are imported once
// and served to the engine from here, so repeated optimizations never
// re-download history.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS bars (
    symbol       TEXT    NOT NULL,
    date         TEXT    NOT NULL, -- YYYY-MM-DD
    open         REAL    NOT NULL,
    high         REAL,
    low          REAL,
    close        REAL    NOT NULL,
    has_intraday INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (symbol, date)
);

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT     PRIMARY KEY,
    kind        TEXT     NOT NULL, -- backtest | optimize
    symbol      TEXT     NOT NULL,
    range_start TEXT     NOT NULL,
    range_end   TEXT     NOT NULL,
    summary     TEXT     NOT NULL,
    created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bars_symbol_date ON bars(symbol, date);
CREATE INDEX IF NOT EXISTS idx_runs_created     ON runs(created_at DESC);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and applies the schema.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewStore: open %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewStore: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBars upserts bars for a symbol inside one transaction. Re-importing
// an overlapping range simply overwrites the affected days.
func (s *Store) SaveBars(ctx context.Context, symbol string, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBars: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (symbol, date, open, high, low, close, has_intraday)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
		    open = excluded.open, high = excluded.high, low = excluded.low,
		    close = excluded.close, has_intraday = excluded.has_intraday`)
	if err != nil {
		return fmt.Errorf("storage.SaveBars: prepare: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		var high, low interface{}
		if bar.HasIntraday {
			high, low = bar.High, bar.Low
		}
		if _, err := stmt.ExecContext(ctx, symbol, bar.DateKey(), bar.Open, high, low, bar.Close, bar.HasIntraday); err != nil {
			return fmt.Errorf("storage.SaveBars: insert %s: %w", bar.DateKey(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBars: commit: %w", err)
	}
	return nil
}

// Bars returns the stored bars for symbol with start <= date <= end, in
// chronological order.
func (s *Store) Bars(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, has_intraday
		FROM bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("storage.Bars: query: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var (
			dateStr     string
			high, low   sql.NullFloat64
			bar         models.PriceBar
			hasIntraday bool
		)
		if err := rows.Scan(&dateStr, &bar.Open, &high, &low, &bar.Close, &hasIntraday); err != nil {
			return nil, fmt.Errorf("storage.Bars: scan: %w", err)
		}
		bar.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("storage.Bars: bad stored date %q: %w", dateStr, err)
		}
		if hasIntraday && high.Valid && low.Valid {
			bar.High, bar.Low, bar.HasIntraday = high.Float64, low.Float64, true
		}
		bars = append(bars, bar)
	}
	return bars, rows.Err()
}

// BarCount returns the number of stored bars for a symbol.
func (s *Store) BarCount(ctx context.Context, symbol string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bars WHERE symbol = ?`, symbol).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.BarCount: %w", err)
	}
	return n, nil
}

// RunSummary is one persisted backtest or optimization run.
type RunSummary struct {
	ID        string
	Kind      string
	Symbol    string
	Start     time.Time
	End       time.Time
	Summary   string
	CreatedAt time.Time
}

// SaveRun records a completed run for later inspection.
func (s *Store) SaveRun(ctx context.Context, run RunSummary) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, symbol, range_start, range_end, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Symbol,
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"),
		run.Summary, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: %w", err)
	}
	return nil
}

// Runs returns the most recent run summaries, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, symbol, range_start, range_end, summary, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Runs: query: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run        RunSummary
			start, end string
		)
		if err := rows.Scan(&run.ID, &run.Kind, &run.Symbol, &start, &end, &run.Summary, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.Runs: scan: %w", err)
		}
		if run.Start, err = time.Parse("2006-01-02", start); err != nil {
			return nil, fmt.Errorf("storage.Runs: bad range_start %q: %w", start, err)
		}
		if run.End, err = time.Parse("2006-01-02", end); err != nil {
			return nil, fmt.Errorf("storage.Runs: bad range_end %q: %w", end, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// BarSource adapts a Store to the market data Source interface for one
// symbol.
type BarSource struct {
	Store  *Store
	Symbol string
}

// Bars implements marketdata.Source.
func (b *BarSource) Bars(ctx context.Context, start, end time.Time) ([]models.PriceBar, error) {
	return b.Store.Bars(ctx, b.Symbol, start, end)
}
