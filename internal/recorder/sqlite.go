package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"CryptoSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
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

	// WAL mode so dashboards can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			interval        TEXT NOT NULL,
			price           REAL,
			change_pct      REAL,
			rsi             REAL,
			macd_hist       REAL,
			adx             REAL,
			stoch_k         REAL,
			bb_percent      REAL,
			score           REAL,
			signal          TEXT,
			active_rules    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_symbol_ts ON signal_snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id               TEXT PRIMARY KEY,
			timestamp            INTEGER NOT NULL,
			symbol               TEXT NOT NULL,
			model                TEXT,
			current_price        REAL,
			final_price          REAL,
			predicted_change_pct REAL,
			direction            TEXT,
			mae                  REAL,
			rmse                 REAL,
			mape                 REAL,
			trained_on           INTEGER,
			prediction_days      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_symbol_ts ON forecast_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_points (
			run_id          TEXT NOT NULL REFERENCES forecast_runs(run_id),
			step            INTEGER NOT NULL,
			date            TEXT,
			predicted_price REAL,
			lower_bound     REAL,
			upper_bound     REAL,
			PRIMARY KEY (run_id, step)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(ctx context.Context, snap *SignalSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := snap.Summary
	rules, err := json.Marshal(s.ActiveRules)
	if err != nil {
		return fmt.Errorf("encode active rules: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO signal_snapshots
		(timestamp, symbol, interval, price, change_pct, rsi, macd_hist, adx,
		 stoch_k, bb_percent, score, signal, active_rules)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.At.Unix(), snap.Symbol, string(snap.Interval), s.Price, s.ChangePct,
		s.RSI, s.MACDHist, s.ADX, s.StochK, s.BBPercent, s.Score,
		string(s.Signal), string(rules),
	)
	return err
}

// RecordForecast writes the run and its predicted points in one transaction.
func (r *SQLiteRecorder) RecordForecast(ctx context.Context, res *model.ForecastResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO forecast_runs
		(run_id, timestamp, symbol, model, current_price, final_price, predicted_change_pct,
		 direction, mae, rmse, mape, trained_on, prediction_days)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.RunID, res.Timestamp.Unix(), res.Symbol, res.Model, res.CurrentPrice,
		res.FinalPrice(), res.PredictedChangePct, string(res.Direction),
		res.Metrics.MAE, res.Metrics.RMSE, res.Metrics.MAPE, res.TrainedOn, res.PredictionDays,
	)
	if err != nil {
		return fmt.Errorf("insert forecast run: %w", err)
	}
	for i, p := range res.Predictions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO forecast_points
			(run_id, step, date, predicted_price, lower_bound, upper_bound)
			VALUES (?,?,?,?,?,?)`,
			res.RunID, i+1, p.Date, p.PredictedPrice, p.LowerBound, p.UpperBound,
		); err != nil {
			return fmt.Errorf("insert forecast point %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LastSignal(ctx context.Context, symbol string) (model.Signal, error) {
	var label string
	err := r.db.QueryRowContext(ctx,
		`SELECT signal FROM signal_snapshots WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		symbol,
	).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.Signal(label), nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
