package storage

// sqlite.go — archivo de snapshots y ledger de trades.
//
// Estrategia:
//   - `book_snapshots`: una fila por token y tick del collector. Es la fuente
//     del backtest, así que se guarda tal cual (JSON crudo de asks/bids).
//   - `market_tokens`: metadata YES/NO por mercado (UPSERT). Permite al
//     backtest emparejar tokens sin heurísticas.
//   - `trades`: ledger append-only de trades ejecutados y simulados.
//   - Prune automático al arrancar: snapshots > 90d. Los trades no se podan.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/arbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Estado del orderbook de un token en un instante
CREATE TABLE IF NOT EXISTS book_snapshots (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    ts        DATETIME NOT NULL,
    token_id  TEXT     NOT NULL,
    market_id TEXT     NOT NULL,
    platform  TEXT     NOT NULL DEFAULT 'polymarket',
    asks      TEXT     NOT NULL DEFAULT '[]',
    bids      TEXT     NOT NULL DEFAULT '[]'
);

-- Par YES/NO de cada mercado, una fila por mercado
CREATE TABLE IF NOT EXISTS market_tokens (
    market_id    TEXT PRIMARY KEY,
    yes_token_id TEXT NOT NULL,
    no_token_id  TEXT NOT NULL
);

-- Ledger append-only de trades
CREATE TABLE IF NOT EXISTS trades (
    id           TEXT PRIMARY KEY,
    ts           DATETIME NOT NULL,
    market_id    TEXT     NOT NULL,
    platform     TEXT     NOT NULL DEFAULT 'polymarket',
    shares       REAL     NOT NULL,
    yes_price    REAL     NOT NULL,
    no_price     REAL     NOT NULL,
    entry_cost   REAL     NOT NULL,
    expected_pnl REAL     NOT NULL,
    roi          REAL     NOT NULL,
    levels_yes   INTEGER  NOT NULL DEFAULT 0,
    levels_no    INTEGER  NOT NULL DEFAULT 0,
    simulated    INTEGER  NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_snap_ts     ON book_snapshots(ts);
CREATE INDEX IF NOT EXISTS idx_snap_market ON book_snapshots(market_id, ts);
CREATE INDEX IF NOT EXISTS idx_trades_ts   ON trades(ts);
`

// retentionSnapshots acota el crecimiento de la tabla más pesada.
const retentionSnapshots = 90 * 24 * time.Hour

// SQLiteStore implementa ports.SnapshotStore y ports.TradeLedger usando
// SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y poda snapshots antiguos.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSnapshot archiva el estado del book de un token.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap domain.BookSnapshot) error {
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	platform := snap.Platform
	if platform == "" {
		platform = "polymarket"
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO book_snapshots (ts, token_id, market_id, platform, asks, bids)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		encodeTime(ts), snap.TokenID, snap.MarketID, platform, snap.AsksJSON, snap.BidsJSON,
	); err != nil {
		return fmt.Errorf("storage.SaveSnapshot: %w", err)
	}
	return nil
}

// SnapshotsForPeriod devuelve los snapshots del rango ordenados por timestamp
// ascendente. marketID y platform vacíos no filtran.
func (s *SQLiteStore) SnapshotsForPeriod(ctx context.Context, from, to time.Time, marketID, platform string) ([]domain.BookSnapshot, error) {
	query := `SELECT id, ts, token_id, market_id, platform, asks, bids
	          FROM book_snapshots WHERE ts BETWEEN ? AND ?`
	args := []any{encodeTime(from), encodeTime(to)}

	if marketID != "" {
		query += ` AND market_id = ?`
		args = append(args, marketID)
	}
	if platform != "" {
		query += ` AND platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY ts ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.SnapshotsForPeriod: query: %w", err)
	}
	defer rows.Close()

	var snaps []domain.BookSnapshot
	for rows.Next() {
		var snap domain.BookSnapshot
		var ts string
		if err := rows.Scan(
			&snap.ID,
			&ts,
			&snap.TokenID,
			&snap.MarketID,
			&snap.Platform,
			&snap.AsksJSON,
			&snap.BidsJSON,
		); err != nil {
			return nil, fmt.Errorf("storage.SnapshotsForPeriod: scan: %w", err)
		}
		snap.Timestamp = decodeTime(ts)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// SaveMarketTokens registra (o actualiza) el par YES/NO de un mercado.
func (s *SQLiteStore) SaveMarketTokens(ctx context.Context, mt domain.MarketTokens) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO market_tokens (market_id, yes_token_id, no_token_id)
		VALUES (?, ?, ?)
		ON CONFLICT(market_id) DO UPDATE SET
			yes_token_id = excluded.yes_token_id,
			no_token_id  = excluded.no_token_id
	`, mt.MarketID, mt.YesTokenID, mt.NoTokenID); err != nil {
		return fmt.Errorf("storage.SaveMarketTokens %s: %w", mt.MarketID, err)
	}
	return nil
}

// MarketTokens devuelve la metadata YES/NO del mercado si existe.
func (s *SQLiteStore) MarketTokens(ctx context.Context, marketID string) (domain.MarketTokens, bool, error) {
	var mt domain.MarketTokens
	err := s.db.QueryRowContext(ctx,
		`SELECT market_id, yes_token_id, no_token_id FROM market_tokens WHERE market_id = ?`,
		marketID,
	).Scan(&mt.MarketID, &mt.YesTokenID, &mt.NoTokenID)
	if err == sql.ErrNoRows {
		return domain.MarketTokens{}, false, nil
	}
	if err != nil {
		return domain.MarketTokens{}, false, fmt.Errorf("storage.MarketTokens %s: %w", marketID, err)
	}
	return mt, true, nil
}

// SaveTrade añade una fila al ledger.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade domain.TradeRecord) error {
	simulated := 0
	if trade.Simulated {
		simulated = 1
	}
	platform := trade.Platform
	if platform == "" {
		platform = "polymarket"
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, ts, market_id, platform, shares, yes_price, no_price,
			 entry_cost, expected_pnl, roi, levels_yes, levels_no, simulated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trade.ID,
		encodeTime(trade.Timestamp),
		trade.MarketID,
		platform,
		trade.Shares,
		trade.YesPrice,
		trade.NoPrice,
		trade.EntryCost,
		trade.ExpectedPnl,
		trade.ROI,
		trade.LevelsYes,
		trade.LevelsNo,
		simulated,
	); err != nil {
		return fmt.Errorf("storage.SaveTrade %s: %w", trade.ID, err)
	}
	return nil
}

// Trades devuelve las filas del ledger en el rango, ordenadas por timestamp.
func (s *SQLiteStore) Trades(ctx context.Context, from, to time.Time) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, market_id, platform, shares, yes_price, no_price,
		       entry_cost, expected_pnl, roi, levels_yes, levels_no, simulated
		FROM trades
		WHERE ts BETWEEN ? AND ?
		ORDER BY ts ASC
	`, encodeTime(from), encodeTime(to))
	if err != nil {
		return nil, fmt.Errorf("storage.Trades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var ts string
		var simulated int
		if err := rows.Scan(
			&t.ID,
			&ts,
			&t.MarketID,
			&t.Platform,
			&t.Shares,
			&t.YesPrice,
			&t.NoPrice,
			&t.EntryCost,
			&t.ExpectedPnl,
			&t.ROI,
			&t.LevelsYes,
			&t.LevelsNo,
			&simulated,
		); err != nil {
			return nil, fmt.Errorf("storage.Trades: scan: %w", err)
		}
		t.Timestamp = decodeTime(ts)
		t.Simulated = simulated == 1
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld elimina snapshots antiguos para mantener la DB ligera.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionSnapshots)
	s.db.ExecContext(ctx, `DELETE FROM book_snapshots WHERE ts < ?`, encodeTime(cutoff))
}

// Los timestamps se guardan como RFC3339 en UTC con fracción de ancho fijo:
// comparan bien lexicográficamente y no dependen del formato del driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
