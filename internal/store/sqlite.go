package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradewatch/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ OrderStore = (*SQLiteStore)(nil)
var _ PriceStore = (*SQLiteStore)(nil)
var _ AlertStore = (*SQLiteStore)(nil)

// SQLiteStore implements OrderStore, PriceStore, and AlertStore backed by a
// SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy   TEXT,
	exchange   TEXT,
	symbol     TEXT,
	order_type TEXT,
	side       TEXT,
	amount     REAL,
	price      REAL,
	status     TEXT,
	created_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS price_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange   TEXT,
	symbol     TEXT,
	last_price REAL,
	volume     REAL,
	updated_at TIMESTAMP,
	UNIQUE(exchange, symbol)
);

CREATE TABLE IF NOT EXISTS strategy_alerts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy    TEXT,
	exchange    TEXT,
	symbol      TEXT,
	action      TEXT,
	old_price   REAL,
	new_price   REAL,
	volume      REAL,
	created_at  TIMESTAMP
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// OrderStore implementation
// ---------------------------------------------------------------------------

// Append inserts a new order and returns its assigned id. A zero CreatedAt is
// stamped with the current time.
func (s *SQLiteStore) Append(ctx context.Context, order *domain.Order) (int64, error) {
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (strategy, exchange, symbol, order_type, side, amount, price, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.Strategy, order.Exchange, order.Symbol, string(order.Type), string(order.Side),
		order.Amount, order.Price, string(order.Status), createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	order.ID = id
	order.CreatedAt = createdAt
	return id, nil
}

// List returns orders matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	query := `SELECT id, strategy, exchange, symbol, order_type, side, amount, price, status, created_at FROM orders WHERE 1=1`
	var args []any

	if filter.Exchange != "" {
		query += ` AND exchange = ?`
		args = append(args, filter.Exchange)
	}
	if filter.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListChronological returns orders with the given status oldest first. Ties
// on created_at fall back to insertion id so replay order is stable.
func (s *SQLiteStore) ListChronological(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT id, strategy, exchange, symbol, order_type, side, amount, price, status, created_at FROM orders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders chronologically: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ClearAll removes every order and returns the number removed.
func (s *SQLiteStore) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, fmt.Errorf("clearing orders: %w", err)
	}
	return res.RowsAffected()
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var orderType, side, status string
		if err := rows.Scan(&o.ID, &o.Strategy, &o.Exchange, &o.Symbol, &orderType, &side,
			&o.Amount, &o.Price, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		o.Type = domain.OrderType(orderType)
		o.Side = domain.OrderSide(side)
		o.Status = domain.OrderStatus(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ---------------------------------------------------------------------------
// PriceStore implementation
// ---------------------------------------------------------------------------

// SavePrice upserts the latest price and volume for an exchange/symbol pair.
func (s *SQLiteStore) SavePrice(ctx context.Context, exchange, symbol string, price, volume float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_entries (exchange, symbol, last_price, volume, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(exchange, symbol) DO UPDATE SET last_price = excluded.last_price,
		   volume = excluded.volume, updated_at = excluded.updated_at`,
		exchange, symbol, price, volume, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving price for %s %s: %w", exchange, symbol, err)
	}
	return nil
}

// LastPrice returns the stored price for the pair, with false when the pair
// has never been seen.
func (s *SQLiteStore) LastPrice(ctx context.Context, exchange, symbol string) (float64, bool, error) {
	var price float64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_price FROM price_entries WHERE exchange = ? AND symbol = ?`,
		exchange, symbol,
	).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading last price for %s %s: %w", exchange, symbol, err)
	}
	return price, true, nil
}

// ---------------------------------------------------------------------------
// AlertStore implementation
// ---------------------------------------------------------------------------

// SaveAlert appends one signal to the alert log.
func (s *SQLiteStore) SaveAlert(ctx context.Context, sig domain.Signal) error {
	createdAt := sig.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO strategy_alerts (strategy, exchange, symbol, action, old_price, new_price, volume, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sig.Strategy, sig.Exchange, sig.Symbol, string(sig.Action),
		sig.OldPrice, sig.NewPrice, sig.NewVolume, createdAt,
	)
	if err != nil {
		return fmt.Errorf("saving alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts newest first, paginated starting at page 1.
func (s *SQLiteStore) ListAlerts(ctx context.Context, page, pageSize int) ([]domain.Signal, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy, exchange, symbol, action, old_price, new_price, volume, created_at
		 FROM strategy_alerts ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		pageSize, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		var action string
		if err := rows.Scan(&sig.Strategy, &sig.Exchange, &sig.Symbol, &action,
			&sig.OldPrice, &sig.NewPrice, &sig.NewVolume, &sig.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}
		sig.Action = domain.SignalAction(action)
		alerts = append(alerts, sig)
	}
	return alerts, rows.Err()
}

// DeleteOlderThan removes alerts created before the cutoff.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM strategy_alerts WHERE created_at < ?`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old alerts: %w", err)
	}
	return res.RowsAffected()
}
