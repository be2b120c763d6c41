package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jeden-/LLM-EA-sub001/internal/errors"
	"github.com/jeden-/LLM-EA-sub001/internal/models"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary initializes) the run database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

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

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Backtest runs with their summary metrics
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		strategy TEXT NOT NULL,
		start_time DATETIME,
		end_time DATETIME,
		initial_balance REAL NOT NULL,
		params TEXT,
		truncated INTEGER DEFAULT 0,
		total_trades INTEGER NOT NULL,
		winning_trades INTEGER NOT NULL,
		losing_trades INTEGER NOT NULL,
		win_rate REAL NOT NULL,
		gross_profit REAL NOT NULL,
		gross_loss REAL NOT NULL,
		net_profit REAL NOT NULL,
		avg_win REAL NOT NULL,
		avg_loss REAL NOT NULL,
		profit_factor REAL,
		max_drawdown_pct REAL NOT NULL,
		sharpe_ratio REAL NOT NULL,
		final_balance REAL NOT NULL,
		equity_curve TEXT
	);

	-- Ledger of simulated trades, one row per closed trade
	CREATE TABLE IF NOT EXISTS run_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		setup TEXT,
		reason TEXT,
		entry_time DATETIME NOT NULL,
		exit_time DATETIME NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		size REAL NOT NULL,
		profit_loss REAL NOT NULL,
		close_reason TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol, strategy);
	CREATE INDEX IF NOT EXISTS idx_run_trades_run ON run_trades(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists the run and its trades in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec *RunRecord) (int64, error) {
	paramsJSON, err := json.Marshal(rec.Params)
	if err != nil {
		return 0, errors.Wrap(err, "marshaling params")
	}
	curveJSON, err := json.Marshal(rec.EquityCurve)
	if err != nil {
		return 0, errors.Wrap(err, "marshaling equity curve")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	m := rec.Metrics
	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			symbol, timeframe, strategy, start_time, end_time, initial_balance,
			params, truncated, total_trades, winning_trades, losing_trades,
			win_rate, gross_profit, gross_loss, net_profit, avg_win, avg_loss,
			profit_factor, max_drawdown_pct, sharpe_ratio, final_balance,
			equity_curve
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.Timeframe, rec.Strategy,
		nullTime(rec.Start), nullTime(rec.End), rec.Balance,
		string(paramsJSON), rec.Truncated,
		m.TotalTrades, m.WinningTrades, m.LosingTrades,
		m.WinRate, m.GrossProfit, m.GrossLoss, m.NetProfit,
		m.AverageWin, m.AverageLoss,
		nullFloat(m.ProfitFactor), m.MaxDrawdownPct, m.SharpeRatio,
		m.FinalBalance, string(curveJSON),
	)
	if err != nil {
		return 0, errors.Wrap(err, "inserting run")
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "reading run id")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_trades (
			run_id, symbol, side, setup, reason, entry_time, exit_time,
			entry_price, exit_price, size, profit_loss, close_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing trade insert")
	}
	defer stmt.Close()

	for _, t := range rec.Trades {
		if _, err := stmt.ExecContext(ctx,
			runID, t.Symbol, string(t.Side), t.Setup, t.Reason,
			t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice,
			t.Size, t.ProfitLoss, string(t.CloseReason),
		); err != nil {
			return 0, errors.Wrap(err, "inserting trade")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing run")
	}
	rec.ID = runID
	return runID, nil
}

// GetRun loads a run with its full ledger and equity curve.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, symbol, timeframe, strategy, start_time, end_time,
		       initial_balance, params, truncated, total_trades,
		       winning_trades, losing_trades, win_rate, gross_profit,
		       gross_loss, net_profit, avg_win, avg_loss, profit_factor,
		       max_drawdown_pct, sharpe_ratio, final_balance, equity_curve
		FROM runs WHERE id = ?`, id)

	rec, curveJSON, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(errors.ErrDataNotFound, "run %d", id)
		}
		return nil, errors.Wrap(err, "loading run")
	}
	if curveJSON != "" {
		if err := json.Unmarshal([]byte(curveJSON), &rec.EquityCurve); err != nil {
			return nil, errors.Wrap(err, "unmarshaling equity curve")
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, side, setup, reason, entry_time, exit_time,
		       entry_price, exit_price, size, profit_loss, close_reason
		FROM run_trades WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "loading trades")
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Trade
		var side, closeReason string
		if err := rows.Scan(&t.Symbol, &side, &t.Setup, &t.Reason,
			&t.EntryTime, &t.ExitTime, &t.EntryPrice, &t.ExitPrice,
			&t.Size, &t.ProfitLoss, &closeReason); err != nil {
			return nil, errors.Wrap(err, "scanning trade")
		}
		t.Side = models.Side(side)
		t.CloseReason = models.CloseReason(closeReason)
		rec.Trades = append(rec.Trades, t)
	}
	return rec, rows.Err()
}

// ListRuns returns run summaries matching the filter, newest first. The
// ledger and equity curve are not populated.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `
		SELECT id, created_at, symbol, timeframe, strategy, start_time, end_time,
		       initial_balance, params, truncated, total_trades,
		       winning_trades, losing_trades, win_rate, gross_profit,
		       gross_loss, net_profit, avg_win, avg_loss, profit_factor,
		       max_drawdown_pct, sharpe_ratio, final_balance, ''
		FROM runs`
	var conds []string
	var args []interface{}
	if filter.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		conds = append(conds, "strategy = ?")
		args = append(args, filter.Strategy)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, _, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, string, error) {
	rec := &RunRecord{}
	var start, end sql.NullTime
	var params sql.NullString
	var profitFactor sql.NullFloat64
	var curveJSON string

	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Symbol, &rec.Timeframe,
		&rec.Strategy, &start, &end, &rec.Balance, &params, &rec.Truncated,
		&rec.Metrics.TotalTrades, &rec.Metrics.WinningTrades,
		&rec.Metrics.LosingTrades, &rec.Metrics.WinRate,
		&rec.Metrics.GrossProfit, &rec.Metrics.GrossLoss,
		&rec.Metrics.NetProfit, &rec.Metrics.AverageWin,
		&rec.Metrics.AverageLoss, &profitFactor, &rec.Metrics.MaxDrawdownPct,
		&rec.Metrics.SharpeRatio, &rec.Metrics.FinalBalance, &curveJSON)
	if err != nil {
		return nil, "", err
	}

	if start.Valid {
		rec.Start = start.Time
	}
	if end.Valid {
		rec.End = end.Time
	}
	if params.Valid && params.String != "" && params.String != "null" {
		if err := json.Unmarshal([]byte(params.String), &rec.Params); err != nil {
			return nil, "", fmt.Errorf("unmarshaling params: %w", err)
		}
	}
	rec.Metrics.ProfitFactor = math.Inf(1)
	if profitFactor.Valid {
		rec.Metrics.ProfitFactor = profitFactor.Float64
	}
	return rec, curveJSON, nil
}

// nullTime maps a zero time to NULL.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// nullFloat maps a non-finite value (all-winning profit factor) to NULL.
func nullFloat(f float64) interface{} {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return f
}
