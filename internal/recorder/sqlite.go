package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/strategy"
)

// SQLiteRecorder writes run headers and their rows to SQLite.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("run recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screening_runs (
			run_id      TEXT PRIMARY KEY,
			kind        TEXT    NOT NULL,
			as_of       INTEGER NOT NULL,
			status      TEXT    NOT NULL,
			reason      TEXT,
			preset      TEXT,
			preset_ver  INTEGER,
			benchmark   TEXT,
			degraded    INTEGER,
			considered  INTEGER,
			scored      INTEGER,
			skipped     INTEGER,
			failed      INTEGER,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_kind_started ON screening_runs(kind, started_at)`,

		`CREATE TABLE IF NOT EXISTS scored_symbols (
			run_id     TEXT    NOT NULL,
			symbol     TEXT    NOT NULL,
			sector     TEXT,
			timestamp  INTEGER NOT NULL,
			close      REAL,
			change_pct REAL,
			volume     INTEGER,
			score      INTEGER,
			stage      TEXT,
			all_passed INTEGER,
			rs         REAL,
			ma30       REAL,
			PRIMARY KEY (run_id, symbol)
		)`,

		`CREATE TABLE IF NOT EXISTS ranked_symbols (
			run_id     TEXT    NOT NULL,
			position   INTEGER NOT NULL,
			symbol     TEXT    NOT NULL,
			timestamp  INTEGER NOT NULL,
			close      REAL,
			rsi        REAL,
			passes_rsi INTEGER,
			macd_state TEXT,
			macd_since INTEGER,
			best_cross TEXT,
			best_since INTEGER,
			PRIMARY KEY (run_id, symbol)
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN to SQL NULL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRecorder) insertRun(ctx context.Context, tx *sql.Tx, run Run, presetVer int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO screening_runs
		(run_id, kind, as_of, status, reason, preset, preset_ver, benchmark, degraded,
		 considered, scored, skipped, failed, started_at, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Kind, run.AsOf.Unix(), string(run.Status), run.Reason,
		run.Preset, presetVer, run.Benchmark, boolInt(run.Degraded),
		run.Counts.Considered, run.Counts.Scored, run.Counts.Skipped, run.Counts.Failed,
		run.StartedAt.Unix(), run.DurationMS,
	)
	return err
}

// RecordWeinstein stores the run header and every scored row in one transaction.
func (r *SQLiteRecorder) RecordWeinstein(ctx context.Context, res *screener.WeinsteinResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	run := Run{
		ID:         res.RunID,
		Kind:       KindWeinstein,
		AsOf:       res.AsOf,
		Status:     res.Status,
		Reason:     res.Reason,
		Preset:     res.Preset,
		Benchmark:  res.Benchmark,
		Degraded:   res.Degraded,
		Counts:     res.Counts,
		StartedAt:  res.StartedAt,
		DurationMS: res.Duration.Milliseconds(),
	}
	if err := r.insertRun(ctx, tx, run, res.PresetVersion); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scored_symbols
		(run_id, symbol, sector, timestamp, close, change_pct, volume, score, stage, all_passed, rs, ma30)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, row := range res.Rows {
		rs, ok := row.Values[strategy.ColRS]
		if !ok {
			rs = math.NaN()
		}
		ma, ok := row.Values[strategy.ColMA30]
		if !ok {
			ma = math.NaN()
		}
		if _, err := stmt.ExecContext(ctx, res.RunID, row.Symbol, row.Sector, row.Time.Unix(),
			nullable(row.Close), nullable(row.ChangePct), row.Volume, row.Score,
			row.Stage.String(), boolInt(row.AllPassed), nullable(rs), nullable(ma)); err != nil {
			return fmt.Errorf("insert %s: %w", row.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run_id", res.RunID).Int("rows", len(res.Rows)).Msg("weinstein run recorded")
	return nil
}

// RecordRanking stores the run header and every ranked row. best_cross is
// the first baseline crossed inside the lookback window, if any.
func (r *SQLiteRecorder) RecordRanking(ctx context.Context, res *screener.RankingResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	run := Run{
		ID:         res.RunID,
		Kind:       KindRanking,
		AsOf:       res.AsOf,
		Status:     res.Status,
		Reason:     res.Reason,
		Counts:     res.Counts,
		StartedAt:  res.StartedAt,
		DurationMS: res.Duration.Milliseconds(),
	}
	if err := r.insertRun(ctx, tx, run, 0); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ranked_symbols
		(run_id, position, symbol, timestamp, close, rsi, passes_rsi, macd_state, macd_since, best_cross, best_since)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, row := range res.Rows {
		var best, bestSince, macdSince any
		for _, c := range row.Crosses {
			if c.WithinWindow {
				best, bestSince = c.Label, c.PeriodsSince
				break
			}
		}
		if row.MACDCross.Ever() {
			macdSince = row.MACDCross.PeriodsSince
		}
		if _, err := stmt.ExecContext(ctx, res.RunID, row.Rank, row.Symbol, row.Time.Unix(),
			nullable(row.Close), nullable(row.RSI), boolInt(row.PassesRSIFilter),
			row.MACDState, macdSince, best, bestSince); err != nil {
			return fmt.Errorf("insert %s: %w", row.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run_id", res.RunID).Int("rows", len(res.Rows)).Msg("ranking run recorded")
	return nil
}

// Runs returns the latest run headers, newest first. An empty kind matches all.
func (r *SQLiteRecorder) Runs(ctx context.Context, kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, kind, as_of, status, reason, preset, benchmark,
		degraded, considered, scored, skipped, failed, started_at, duration_ms
		FROM screening_runs WHERE (? = '' OR kind = ?)
		ORDER BY started_at DESC, run_id LIMIT ?`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run                   Run
			asOf, started         int64
			status                string
			reason, preset, bench sql.NullString
			degraded              int
		)
		if err := rows.Scan(&run.ID, &run.Kind, &asOf, &status, &reason, &preset, &bench,
			&degraded, &run.Counts.Considered, &run.Counts.Scored, &run.Counts.Skipped,
			&run.Counts.Failed, &started, &run.DurationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.AsOf = time.Unix(asOf, 0).UTC()
		run.StartedAt = time.Unix(started, 0).UTC()
		run.Status = screener.Status(status)
		run.Reason, run.Preset, run.Benchmark = reason.String, preset.String, bench.String
		run.Degraded = degraded == 1
		out = append(out, run)
	}
	return out, rows.Err()
}

// ScoredCount returns how many scored rows a run recorded.
func (r *SQLiteRecorder) ScoredCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scored_symbols WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing run recorder")
	return r.db.Close()
}
