package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prn-tf/tienda/internal/domain"
	"github.com/prn-tf/tienda/internal/repository"
)

// orderRepository implements repository.OrderRepository for SQLite.
type orderRepository struct {
	db *DB
}

// NewOrderRepository creates a new SQLite order repository.
func NewOrderRepository(db *DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// WithTx runs fn in a single transaction.
func (r *orderRepository) WithTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

// orderTx writes order rows through an open transaction.
type orderTx struct {
	tx *sql.Tx
}

// CreateOrder inserts the order header.
func (t *orderTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	result, err := t.tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, placed_at, total) VALUES (?, ?, ?)`,
		order.UserID, order.Timestamp(), order.Total,
	)
	if err != nil {
		return mapWriteError("order", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	order.ID = id

	return nil
}

// CreateLine inserts an order line.
func (t *orderTx) CreateLine(ctx context.Context, line *domain.OrderLine) error {
	result, err := t.tx.ExecContext(ctx,
		`INSERT INTO order_lines (order_id, item_id, quantity, subtotal) VALUES (?, ?, ?, ?)`,
		line.OrderID, line.ItemID, line.Quantity, line.Subtotal,
	)
	if err != nil {
		return mapWriteError("order line", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	line.ID = id

	return nil
}

func mapWriteError(what string, err error) error {
	switch {
	case isForeignKeyViolation(err):
		return fmt.Errorf("failed to create %s: referenced row missing: %w", what, err)
	case isCheckViolation(err):
		return fmt.Errorf("failed to create %s: constraint rejected values: %w", what, err)
	default:
		return fmt.Errorf("failed to create %s: %w", what, err)
	}
}

// GetByID retrieves an order with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}
	var placedAt string

	err := r.db.db.QueryRowContext(ctx,
		`SELECT id, user_id, placed_at, total FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.UserID, &placedAt, &order.Total)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.PlacedAt, err = parseTimestamp(placedAt); err != nil {
		return nil, err
	}

	rows, err := r.db.db.QueryContext(ctx, `
		SELECT id, order_id, item_id, quantity, subtotal
		FROM order_lines
		WHERE order_id = ?
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line := &domain.OrderLine{}
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.Quantity, &line.Subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return order, nil
}

// ListViews returns the order listing, newest order first.
func (r *orderRepository) ListViews(ctx context.Context) ([]*domain.OrderView, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT o.id, u.name, u.email, o.placed_at, c.name, l.quantity, l.subtotal
		FROM orders o
		JOIN users u ON u.id = o.user_id
		JOIN order_lines l ON l.order_id = o.id
		JOIN catalog_items c ON c.id = l.item_id
		ORDER BY o.id DESC, l.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var views []*domain.OrderView
	for rows.Next() {
		v := &domain.OrderView{}
		var placedAt string
		if err := rows.Scan(&v.OrderID, &v.UserName, &v.UserEmail, &placedAt, &v.ItemName, &v.Quantity, &v.Subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan order view: %w", err)
		}
		if v.PlacedAt, err = parseTimestamp(placedAt); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return views, nil
}

// Count returns the number of orders.
func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(domain.TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid order timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

var (
	_ repository.OrderRepository = (*orderRepository)(nil)
	_ repository.OrderTx         = (*orderTx)(nil)
)
