package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sarthi-rx/server/internal/agent/model"
	errx "github.com/sarthi-rx/server/internal/core/error"
)

const orderColumns = `order_id, patient_id, product_name, quantity, unit_price, total_price, status, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var status string
	var created int64
	if err := row.Scan(&o.OrderID, &o.PatientID, &o.ProductName, &o.Quantity, &o.UnitPrice, &o.TotalPrice, &status, &created); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.Timestamp = time.Unix(0, created).UTC()
	return &o, nil
}

// CreateOrder decrements stock and inserts the order in one transaction. A
// request whose idempotency key was already committed returns that order
// with Duplicate set and changes nothing.
func (s *SQLiteStore) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderReceipt, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("create order: quantity %d must be positive", req.Quantity)
	}
	if req.UnitPrice <= 0 {
		return nil, model.ErrInvalidPrice
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if existing, err := s.orderByKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return &model.OrderReceipt{Order: *existing, Duplicate: true}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("begin order tx: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - ? WHERE name = ? AND stock >= ?`,
		req.Quantity, req.ProductName, req.Quantity)
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("decrement stock: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("decrement stock: %w", err))
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE name = ?`, req.ProductName).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		if err != nil {
			return nil, errx.WrapStore(fmt.Errorf("check product: %w", err))
		}
		return nil, model.ErrOutOfStock
	}

	o := model.Order{
		OrderID:     "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		PatientID:   req.PatientID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalPrice:  model.OrderTotal(req.UnitPrice, req.Quantity),
		Status:      model.OrderCreated,
		Timestamp:   time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO orders (order_id, idempotency_key, patient_id, product_name, quantity, unit_price, total_price, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, req.IdempotencyKey, o.PatientID, o.ProductName, o.Quantity, o.UnitPrice, o.TotalPrice,
		string(o.Status), o.Timestamp.UnixNano())
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("insert order: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, errx.WrapStore(fmt.Errorf("commit order: %w", err))
	}
	return &model.OrderReceipt{Order: o}, nil
}

func (s *SQLiteStore) orderByKey(ctx context.Context, key string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = ?`, key)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("scan order row: %w", err))
	}
	return o, nil
}

func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE order_id = ?`, string(status), orderID)
	if err != nil {
		return errx.WrapStore(fmt.Errorf("update order status: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update order status: order %s not found", orderID)
	}
	return nil
}

// ListOrders returns the newest orders first. limit <= 0 means all.
func (s *SQLiteStore) ListOrders(ctx context.Context, patientID string, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE patient_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// RecentOrders implements the interaction checker's history window.
func (s *SQLiteStore) RecentOrders(ctx context.Context, patientID string, window time.Duration) ([]model.HistoryItem, error) {
	since := time.Now().Add(-window).UnixNano()
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_name, quantity, created_at FROM orders WHERE patient_id = ? AND created_at >= ? ORDER BY created_at DESC`,
		patientID, since)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.HistoryItem
	for rows.Next() {
		var it model.HistoryItem
		var created int64
		if err := rows.Scan(&it.ProductName, &it.Quantity, &created); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		it.Date = time.Unix(0, created).UTC()
		out = append(out, it)
	}
	return out, rows.Err()
}

// DueRefills assumes each order is a fixed supply and reports products whose
// supply ends within the reminder window. Only the latest order per patient
// and product counts.
func (s *SQLiteStore) DueRefills(ctx context.Context, patientID string, now time.Time) ([]model.RefillDue, error) {
	query := `SELECT patient_id, product_name, MAX(created_at) FROM orders`
	var args []any
	if patientID != "" {
		query += ` WHERE patient_id = ?`
		args = append(args, patientID)
	}
	query += ` GROUP BY patient_id, product_name ORDER BY patient_id, MAX(created_at)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query refills: %w", err)
	}
	defer rows.Close()

	var out []model.RefillDue
	for rows.Next() {
		var r model.RefillDue
		var last int64
		if err := rows.Scan(&r.PatientID, &r.ProductName, &last); err != nil {
			return nil, fmt.Errorf("scan refill row: %w", err)
		}
		r.LastOrdered = time.Unix(0, last).UTC()
		daysSince := int(now.Sub(r.LastOrdered).Hours() / 24)
		r.DaysUntil = s.supplyDays - daysSince
		if r.DaysUntil >= 0 && r.DaysUntil <= s.windowDays {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}
