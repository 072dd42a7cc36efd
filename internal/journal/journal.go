package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"

	"econ_go/internal/domain"
	"econ_go/pkg/quant"
)

// Journal is an append-only sqlite audit log of executed trades and expired
// orders. It only ever records; exchange state is never restored from it.
type Journal struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates or opens a journal database.
func Open(dbPath string, log *slog.Logger) (*Journal, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			ware TEXT NOT NULL,
			seller TEXT NOT NULL,
			buyer TEXT NOT NULL,
			qty INTEGER NOT NULL,
			price INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("create trades table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS expiries (
			order_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			owner TEXT NOT NULL,
			ware TEXT NOT NULL,
			side TEXT NOT NULL,
			qty INTEGER NOT NULL,
			price INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("create expiries table: %w", err)
	}

	return &Journal{db: db, log: log}, nil
}

// TradeExecuted records a settled trade. Implements the exchange event sink;
// a write failure is logged, never propagated into the matching loop.
func (j *Journal) TradeExecuted(rec domain.TradeRecord) {
	_, err := j.db.ExecContext(context.Background(),
		"INSERT INTO trades (id, ts, ware, seller, buyer, qty, price) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, int64(rec.Time), rec.Ware, rec.From, rec.To, int64(rec.Qty), int64(rec.PriceMicros),
	)
	if err != nil {
		j.log.Error("journal: trade insert failed",
			slog.String("id", rec.ID),
			slog.Any("error", err))
	}
}

// OrderExpired records a swept order.
func (j *Journal) OrderExpired(order domain.Order) {
	_, err := j.db.ExecContext(context.Background(),
		"INSERT INTO expiries (order_id, ts, owner, ware, side, qty, price) VALUES (?, ?, ?, ?, ?, ?, ?)",
		order.ID, int64(order.ExpiresAt), order.OwnerID, order.Ware, string(order.Side), int64(order.Qty), int64(order.PriceMicros),
	)
	if err != nil {
		j.log.Error("journal: expiry insert failed",
			slog.String("order_id", order.ID),
			slog.Any("error", err))
	}
}

// Trades returns recorded trades, newest first, optionally filtered by ware.
func (j *Journal) Trades(ctx context.Context, ware string, limit int) ([]domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := "SELECT id, ts, ware, seller, buyer, qty, price FROM trades"
	args := []any{}
	if ware != "" {
		query += " WHERE ware = ?"
		args = append(args, ware)
	}
	query += " ORDER BY ts DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var rec domain.TradeRecord
		var ts, qty, price int64
		if err := rows.Scan(&rec.ID, &ts, &rec.Ware, &rec.From, &rec.To, &qty, &price); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		rec.Time = quant.TimeStamp(ts)
		rec.Qty = quant.Qty(qty)
		rec.PriceMicros = quant.PriceMicros(price)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ExpiryCount returns the number of recorded expiries for an owner.
func (j *Journal) ExpiryCount(ctx context.Context, owner string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expiries WHERE owner = ?", owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expiries: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
