package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizzeria-be/internal/catalog"
	"pizzeria-be/internal/db"
)

// Repository is the order storage. Every mutation runs inside WithinTx so the
// order row lock, catalog reads and writes share one transaction.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]*Summary, error)
	Stats(ctx context.Context, since time.Time) (*StatsRow, error)
}

// TxRepository is the transaction-scoped view handed to WithinTx callbacks.
type TxRepository interface {
	// LockOrder loads the order with its lines and holds its row lock until
	// the transaction ends.
	LockOrder(ctx context.Context, id int64) (*Order, error)
	ItemsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Item, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertLine(ctx context.Context, l *Line) error
	UpdateLine(ctx context.Context, l *Line) error
	DeleteLine(ctx context.Context, orderID, lineID int64) error
	SaveTotals(ctx context.Context, o *Order) error
}

type repository struct {
	conn *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{conn: conn}
}

func (r *repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.conn, func(tx *sql.Tx) error {
		return fn(ctx, &queries{conn: tx})
	})
}

func (r *repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return (&queries{conn: r.conn}).getOrder(ctx, id, false)
}

func (r *repository) ListOrders(ctx context.Context, f ListFilter) ([]*Summary, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}

	query := `
		SELECT o.id, o.order_number, o.user_id, o.customer_name, o.status, o.is_delivery,
			o.payment_method, o.total_amount, o.created_at,
			(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id)
		FROM orders o`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(
			&s.ID, &s.OrderNumber, &s.UserID, &s.CustomerName, &s.Status, &s.IsDelivery,
			&s.PaymentMethod, &s.TotalAmount, &s.CreatedAt, &s.ItemsCount,
		); err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repository) Stats(ctx context.Context, since time.Time) (*StatsRow, error) {
	st := &StatsRow{ByStatus: make(map[Status]int, len(AllStatuses))}

	err := r.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COALESCE(SUM(total_amount) FILTER (WHERE status <> 'canceled'), 0),
			COUNT(*) FILTER (WHERE status = 'delivered')
		FROM orders`, since,
	).Scan(&st.TotalOrders, &st.OrdersToday, &st.TotalRevenue, &st.DeliveredCount)
	if err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		st.ByStatus[status] = count
	}
	return st, rows.Err()
}

type queries struct {
	conn db.DBTX
}

const orderColumns = `id, order_number, user_id, customer_name, customer_phone, is_delivery,
	delivery_address, payment_method, status, subtotal, delivery_fee, total_amount,
	estimated_delivery_time, observations, created_at, updated_at`

func (q *queries) LockOrder(ctx context.Context, id int64) (*Order, error) {
	return q.getOrder(ctx, id, true)
}

func (q *queries) getOrder(ctx context.Context, id int64, forUpdate bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		o       Order
		address []byte
	)
	err := q.conn.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerName, &o.CustomerPhone, &o.IsDelivery,
		&address, &o.PaymentMethod, &o.Status, &o.Subtotal, &o.DeliveryFee, &o.TotalAmount,
		&o.EstimatedDeliveryTime, &o.Observations, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if len(address) > 0 {
		var a Address
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, fmt.Errorf("decode delivery address: %w", err)
		}
		o.DeliveryAddress = &a
	}

	o.Lines, err = q.lines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (q *queries) lines(ctx context.Context, orderID int64) ([]*Line, error) {
	rows, err := q.conn.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.item_id, i.name, i.preparation_time, oi.quantity,
			oi.unit_price, oi.total_price, oi.observations, oi.created_at, oi.updated_at
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	var out []*Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID, &l.OrderID, &l.ItemID, &l.ItemName, &l.PreparationTime, &l.Quantity,
			&l.UnitPrice, &l.LineTotal, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (q *queries) ItemsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Item, error) {
	return catalog.NewRepository(q.conn).GetByIDs(ctx, ids)
}

func (q *queries) InsertOrder(ctx context.Context, o *Order) error {
	var address any
	if o.DeliveryAddress != nil {
		raw, err := json.Marshal(o.DeliveryAddress)
		if err != nil {
			return fmt.Errorf("encode delivery address: %w", err)
		}
		address = string(raw)
	}

	err := q.conn.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, user_id, customer_name, customer_phone, is_delivery, delivery_address,
			payment_method, status, subtotal, delivery_fee, total_amount,
			estimated_delivery_time, observations
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		o.OrderNumber, o.UserID, o.CustomerName, o.CustomerPhone, o.IsDelivery, address,
		string(o.PaymentMethod), string(o.Status), o.Subtotal, o.DeliveryFee, o.TotalAmount,
		o.EstimatedDeliveryTime, o.Observations,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if constraint, ok := db.UniqueViolation(err); ok && constraint == constraintOrderNumber {
		return errDuplicateOrderNumber.Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (q *queries) InsertLine(ctx context.Context, l *Line) error {
	err := q.conn.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, item_id, quantity, unit_price, total_price, observations)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		l.OrderID, l.ItemID, l.Quantity, l.UnitPrice, l.LineTotal, l.Notes,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

func (q *queries) UpdateLine(ctx context.Context, l *Line) error {
	err := q.conn.QueryRowContext(ctx, `
		UPDATE order_items
		SET quantity = $1, unit_price = $2, total_price = $3, observations = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		l.Quantity, l.UnitPrice, l.LineTotal, l.Notes, l.ID,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLineNotFound
	}
	if err != nil {
		return fmt.Errorf("update order line: %w", err)
	}
	return nil
}

func (q *queries) DeleteLine(ctx context.Context, orderID, lineID int64) error {
	res, err := q.conn.ExecContext(ctx,
		`DELETE FROM order_items WHERE id = $1 AND order_id = $2`, lineID, orderID)
	if err != nil {
		return fmt.Errorf("delete order line: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order line: %w", err)
	}
	if n == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (q *queries) SaveTotals(ctx context.Context, o *Order) error {
	err := q.conn.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, subtotal = $2, total_amount = $3, estimated_delivery_time = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		string(o.Status), o.Subtotal, o.TotalAmount, o.EstimatedDeliveryTime, o.ID,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("save order totals: %w", err)
	}
	return nil
}
