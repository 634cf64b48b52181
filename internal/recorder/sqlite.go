package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"StockLens/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the HTTP API can read while the scanner writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker      TEXT    NOT NULL,
			bar_time    INTEGER NOT NULL,
			bar_date    TEXT    NOT NULL,
			kind        TEXT    NOT NULL,
			price       REAL    NOT NULL,
			rsi         REAL    NOT NULL,
			recorded_at INTEGER NOT NULL,
			UNIQUE(ticker, bar_time, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ticker ON signals(ticker, bar_time)`,

		`CREATE TABLE IF NOT EXISTS analyses (
			id             TEXT PRIMARY KEY,
			ticker         TEXT    NOT NULL,
			timestamp      INTEGER NOT NULL,
			recommendation TEXT,
			target_price   REAL,
			current_price  REAL,
			confidence     TEXT,
			payload        TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ticker ON analyses(ticker, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSignals inserts signals keyed by (ticker, bar time, kind). Rows that
// already exist are ignored and left out of the result.
func (r *SQLiteRecorder) RecordSignals(ticker string, signals []model.Signal) ([]model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := []model.Signal{}
	if len(signals) == 0 {
		return fresh, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO signals
		(ticker, bar_time, bar_date, kind, price, rsi, recorded_at)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, s := range signals {
		res, err := stmt.Exec(ticker, s.Time.Unix(), s.Date, string(s.Kind), s.Price, s.RSI, now)
		if err != nil {
			return nil, fmt.Errorf("insert signal %s@%s: %w", s.Kind, s.Date, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			fresh = append(fresh, s)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return fresh, nil
}

// RecordAnalysis stores an AI analysis with its headline fields broken out.
func (r *SQLiteRecorder) RecordAnalysis(ticker string, res *model.AnalysisResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO analyses
		(id, ticker, timestamp, recommendation, target_price, current_price, confidence, payload)
		VALUES (?,?,?,?,?,?,?,?)`,
		uuid.NewString(), ticker, time.Now().Unix(),
		string(res.Recommendation), res.PriceForecast.TargetPrice, res.PriceForecast.CurrentPrice,
		string(res.PriceForecast.Confidence), string(payload),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
