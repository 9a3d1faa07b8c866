package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the journal to a SQLite database.
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

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			action      TEXT,
			reason      TEXT,
			mid_price   REAL,
			rsi         REAL,
			rsi_defined INTEGER,
			volatility  REAL,
			spread      REAL,
			volume      REAL,
			volume_ma   REAL,
			balance     REAL,
			positions   INTEGER,
			drawdown    REAL,
			error_kind  TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			side         TEXT NOT NULL,
			position_id  TEXT NOT NULL,
			price        TEXT,
			size         TEXT,
			amount       TEXT,
			profit       TEXT,
			profit_pct   REAL,
			close_reason TEXT,
			order_id     TEXT,
			simulated    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS daily_summaries (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			initial_balance  TEXT,
			balance          TEXT,
			daily_return_pct REAL,
			total_return_pct REAL,
			daily_pl         TEXT,
			open_positions   INTEGER,
			win_rate_pct     REAL,
			max_drawdown_pct REAL,
			trades           INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_summaries_ts ON daily_summaries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(evt *CycleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := evt.Decision
	m := d.Metrics
	_, err := r.db.Exec(`INSERT INTO cycles
		(timestamp, action, reason, mid_price, rsi, rsi_defined, volatility,
		 spread, volume, volume_ma, balance, positions, drawdown, error_kind, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.At.Unix(), string(d.Action), d.Reason, evt.MidPrice,
		m.RSI, m.RSIDefined, m.Volatility, m.Spread, m.Volume, m.VolumeMA,
		evt.Balance, evt.Positions, evt.Drawdown, evt.ErrorKind, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, side, position_id, price, size, amount, profit, profit_pct,
		 close_reason, order_id, simulated)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		evt.At.Unix(), string(evt.Side), evt.PositionID, evt.Price, evt.Size,
		evt.Amount, evt.Profit, evt.ProfitPct, evt.CloseReason, evt.OrderID, evt.Simulated,
	)
	return err
}

func (r *SQLiteRecorder) RecordDailySummary(evt *DailySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := evt.Summary
	_, err := r.db.Exec(`INSERT INTO daily_summaries
		(timestamp, initial_balance, balance, daily_return_pct, total_return_pct,
		 daily_pl, open_positions, win_rate_pct, max_drawdown_pct, trades)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		evt.At.Unix(), s.InitialBalance.String(), s.Balance.String(),
		s.DailyReturnPct, s.TotalReturnPct, s.DailyProfitLoss.String(),
		s.OpenPositions, s.WinRatePct, s.MaxDrawdownPct, s.Trades,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
