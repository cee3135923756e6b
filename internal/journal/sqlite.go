package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Timestamps are stored as UTC Unix nanoseconds so SQL comparisons and
// ORDER BY match time order exactly, including sub-second exits.
const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id            TEXT PRIMARY KEY,
	ticker        TEXT NOT NULL,
	side          TEXT NOT NULL,
	entry_price   REAL NOT NULL,
	exit_price    REAL NOT NULL,
	entry_at      INTEGER NOT NULL,
	exit_at       INTEGER NOT NULL,
	realized_pnl  REAL NOT NULL,
	exit_reason   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_trades_exit_at ON trades(exit_at);

CREATE TABLE IF NOT EXISTS equity (
	at             INTEGER PRIMARY KEY,
	equity         REAL NOT NULL,
	unrealized_pnl REAL NOT NULL DEFAULT 0
);
`

// SQLite implements Store on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the journal database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t Trade) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	_, err := j.db.Exec(`
		INSERT INTO trades
		(id, ticker, side, entry_price, exit_price, entry_at, exit_at, realized_pnl, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Ticker, t.Side, t.EntryPrice, t.ExitPrice,
		t.EntryAt.UnixNano(), t.ExitAt.UnixNano(),
		t.RealizedPnL, t.ExitReason,
	)
	return err
}

// GetTrade returns a single trade by ID.
func (j *SQLite) GetTrade(id string) (Trade, error) {
	row := j.db.QueryRow(`
		SELECT id, ticker, side, entry_price, exit_price, entry_at, exit_at, realized_pnl, exit_reason
		FROM trades WHERE id = ?`, id)
	t, err := scanTrade(row.Scan)
	if err == sql.ErrNoRows {
		return Trade{}, fmt.Errorf("trade %q not found", id)
	}
	return t, err
}

// ListClosedBetween returns trades with exit_at within [start, end), in close
// order.
func (j *SQLite) ListClosedBetween(start, end time.Time) ([]Trade, error) {
	rows, err := j.db.Query(`
		SELECT id, ticker, side, entry_price, exit_price, entry_at, exit_at, realized_pnl, exit_reason
		FROM trades
		WHERE exit_at >= ? AND exit_at < ?
		ORDER BY exit_at ASC`,
		start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLite) RecordEquity(s EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO equity (at, equity, unrealized_pnl) VALUES (?, ?, ?)`,
		s.At.UnixNano(), s.Equity, s.UnrealizedPnL)
	return err
}

// LatestEquity returns the most recent equity snapshot, if one exists.
func (j *SQLite) LatestEquity() (EquitySnapshot, bool, error) {
	row := j.db.QueryRow(`SELECT at, equity, unrealized_pnl FROM equity ORDER BY at DESC LIMIT 1`)

	var at int64
	var s EquitySnapshot
	if err := row.Scan(&at, &s.Equity, &s.UnrealizedPnL); err != nil {
		if err == sql.ErrNoRows {
			return EquitySnapshot{}, false, nil
		}
		return EquitySnapshot{}, false, err
	}
	s.At = time.Unix(0, at).UTC()
	return s, true, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func scanTrade(scan func(dest ...any) error) (Trade, error) {
	var t Trade
	var entryAt, exitAt int64
	err := scan(&t.ID, &t.Ticker, &t.Side, &t.EntryPrice, &t.ExitPrice,
		&entryAt, &exitAt, &t.RealizedPnL, &t.ExitReason)
	if err != nil {
		return Trade{}, err
	}
	t.EntryAt = time.Unix(0, entryAt).UTC()
	t.ExitAt = time.Unix(0, exitAt).UTC()
	return t, nil
}
