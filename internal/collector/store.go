package collector

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// SQLiteStore keeps OHLCV rows in a local SQLite database and serves them
// as a Source.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("ohlcv store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ohlcv_data (
			symbol     TEXT    NOT NULL,
			resolution TEXT    NOT NULL,
			timestamp  INTEGER NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			adj_close  REAL,
			volume     REAL,
			UNIQUE (symbol, resolution, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ohlcv_symbol_ts ON ohlcv_data(symbol, timestamp)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec %q: %w", q[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// nullable maps NaN to SQL NULL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Upsert writes bars for symbol, replacing rows with the same timestamp.
func (s *SQLiteStore) Upsert(ctx context.Context, symbol string, res model.Resolution, bars []model.RawBar) (int, error) {
	if res == "" {
		res = model.ResolutionDaily
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ohlcv_data
		(symbol, resolution, timestamp, open, high, low, close, adj_close, volume)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, resolution, timestamp) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, adj_close=excluded.adj_close, volume=excluded.volume`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, b := range bars {
		if b.Time.IsZero() {
			continue
		}
		if _, err := stmt.ExecContext(ctx, symbol, string(res), b.Time.Unix(),
			nullable(b.Open), nullable(b.High), nullable(b.Low),
			nullable(b.Close), nullable(b.AdjClose), nullable(b.Volume)); err != nil {
			return n, fmt.Errorf("upsert %s: %w", symbol, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) FetchBars(ctx context.Context, req Request) ([]model.RawBar, error) {
	q := `SELECT timestamp, open, high, low, close, adj_close, volume
		FROM ohlcv_data WHERE symbol = ? AND resolution = ?`
	args := []any{req.Symbol, string(req.resolution())}
	if !req.From.IsZero() {
		q += ` AND timestamp >= ?`
		args = append(args, req.From.Unix())
	}
	if !req.To.IsZero() {
		q += ` AND timestamp <= ?`
		args = append(args, req.To.Unix())
	}
	q += ` ORDER BY timestamp`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", req.Symbol, err)
	}
	defer rows.Close()

	var bars []model.RawBar
	for rows.Next() {
		var ts int64
		var o, h, l, c, a, v sql.NullFloat64
		if err := rows.Scan(&ts, &o, &h, &l, &c, &a, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", req.Symbol, err)
		}
		bars = append(bars, model.RawBar{
			Time:     time.Unix(ts, 0).UTC(),
			Open:     fromNull(o),
			High:     fromNull(h),
			Low:      fromNull(l),
			Close:    fromNull(c),
			AdjClose: fromNull(a),
			Volume:   fromNull(v),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("sqlite %s: %w", req.Symbol, ErrNoData)
	}
	return bars, nil
}

// Symbols lists every stored symbol in ascending order.
func (s *SQLiteStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM ohlcv_data ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing ohlcv store")
	return s.db.Close()
}
