package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "quant-engine/internal/errors"
	"quant-engine/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Concurrent portfolio workers read in parallel.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Daily closes
	CREATE TABLE IF NOT EXISTS prices (
		symbol TEXT NOT NULL,
		ts DATETIME NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, ts)
	);

	-- Reported fundamentals by period
	CREATE TABLE IF NOT EXISTS fundamentals (
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		period DATETIME NOT NULL,
		value REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, kind, period)
	);

	-- Size and liquidity
	CREATE TABLE IF NOT EXISTS instruments (
		symbol TEXT PRIMARY KEY,
		market_cap REAL NOT NULL DEFAULT 0,
		avg_daily_volume REAL NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prices_symbol_ts ON prices(symbol, ts DESC);
	CREATE INDEX IF NOT EXISTS idx_fundamentals_symbol_kind ON fundamentals(symbol, kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ============================================================================
// Prices
// ============================================================================

// SavePrices upserts daily closes for a symbol.
func (s *SQLiteStore) SavePrices(ctx context.Context, symbol string, bars []PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	symbol = normalizeSymbol(symbol)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to begin transaction: %v", err))
	}
	defer tx.Rollback()

	if err := insertPrices(ctx, tx, symbol, bars); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to commit transaction: %v", err))
	}

	return nil
}

func insertPrices(ctx context.Context, tx *sql.Tx, symbol string, bars []PriceBar) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO prices (symbol, ts, close, volume)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to prepare statement: %v", err))
	}
	defer stmt.Close()

	for _, b := range bars {
		if b.Close <= 0 {
			return apperrors.NewValidationError("close", b.Close, fmt.Sprintf("%s on %s must be positive", symbol, b.Date.Format("2006-01-02")))
		}
		if _, err := stmt.ExecContext(ctx, symbol, b.Date.UTC(), b.Close, b.Volume); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to insert price: %v", err))
		}
	}
	return nil
}

// GetPrices returns up to limit closes for a symbol, newest first. A
// non-positive limit returns the whole history.
func (s *SQLiteStore) GetPrices(ctx context.Context, symbol string, limit int) (models.PriceSeries, error) {
	symbol = normalizeSymbol(symbol)
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT close
		FROM prices
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, apperrors.NewDataError("prices", symbol, "query failed", err)
	}
	defer rows.Close()

	var series models.PriceSeries
	for rows.Next() {
		var price float64
		if err := rows.Scan(&price); err != nil {
			return nil, apperrors.NewDataError("prices", symbol, "scan failed", err)
		}
		series = append(series, price)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataError("prices", symbol, "iteration failed", err)
	}
	if len(series) == 0 {
		return nil, apperrors.NewDataError("prices", symbol, "no prices stored", apperrors.ErrDataNotFound)
	}

	return series, nil
}

// ============================================================================
// Fundamentals
// ============================================================================

// SaveFundamentals upserts reported values of one kind for a symbol.
func (s *SQLiteStore) SaveFundamentals(ctx context.Context, symbol string, kind FundamentalKind, points []FundamentalPoint) error {
	if len(points) == 0 {
		return nil
	}
	symbol = normalizeSymbol(symbol)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to begin transaction: %v", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fundamentals (symbol, kind, period, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to prepare statement: %v", err))
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, symbol, string(kind), p.Period.UTC(), p.Value); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to insert fundamental: %v", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to commit transaction: %v", err))
	}

	return nil
}

// GetFundamentals returns all values of one kind for a symbol, newest period first.
func (s *SQLiteStore) GetFundamentals(ctx context.Context, symbol string, kind FundamentalKind) ([]float64, error) {
	symbol = normalizeSymbol(symbol)

	rows, err := s.db.QueryContext(ctx, `
		SELECT value
		FROM fundamentals
		WHERE symbol = ? AND kind = ?
		ORDER BY period DESC
	`, symbol, string(kind))
	if err != nil {
		return nil, apperrors.NewDataError(string(kind), symbol, "query failed", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.NewDataError(string(kind), symbol, "scan failed", err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataError(string(kind), symbol, "iteration failed", err)
	}
	if len(values) == 0 {
		return nil, apperrors.NewDataError(string(kind), symbol, "no values stored", apperrors.ErrDataNotFound)
	}

	return values, nil
}

// ============================================================================
// Instruments
// ============================================================================

// SaveInstrument upserts size and liquidity figures for a symbol.
func (s *SQLiteStore) SaveInstrument(ctx context.Context, inst Instrument) error {
	symbol := normalizeSymbol(inst.Symbol)
	if symbol == "" {
		return apperrors.NewValidationError("symbol", inst.Symbol, "must not be empty")
	}
	updated := inst.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO instruments (symbol, market_cap, avg_daily_volume, updated_at)
		VALUES (?, ?, ?, ?)
	`, symbol, inst.MarketCap, inst.AvgDailyVolume, updated.UTC())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to save instrument: %v", err))
	}
	return nil
}

// GetInstrument returns the stored figures for a symbol.
func (s *SQLiteStore) GetInstrument(ctx context.Context, symbol string) (*Instrument, error) {
	symbol = normalizeSymbol(symbol)

	var inst Instrument
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, market_cap, avg_daily_volume, updated_at
		FROM instruments
		WHERE symbol = ?
	`, symbol).Scan(&inst.Symbol, &inst.MarketCap, &inst.AvgDailyVolume, &inst.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewDataError("instrument", symbol, "not stored", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return nil, apperrors.NewDataError("instrument", symbol, "query failed", err)
	}

	return &inst, nil
}
