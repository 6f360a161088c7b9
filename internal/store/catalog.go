package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sarthi-rx/server/internal/agent/model"
	errx "github.com/sarthi-rx/server/internal/core/error"
)

const productColumns = `id, name, description, price, stock, prescription_required`

func scanProduct(row interface{ Scan(...any) error }) (*model.ProductRef, error) {
	var p model.ProductRef
	var rx int
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &p.Stock, &rx); err != nil {
		return nil, err
	}
	p.PrescriptionRequired = rx != 0
	return &p, nil
}

// GetProduct looks a product up by name, case-insensitively.
func (s *SQLiteStore) GetProduct(ctx context.Context, name string) (*model.ProductRef, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE name = ?`, name)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}
	return p, nil
}

// ListProducts returns the catalog in insertion order.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]model.ProductRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []model.ProductRef
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpsertProduct inserts or replaces a catalog row by name.
func (s *SQLiteStore) UpsertProduct(ctx context.Context, p model.ProductRef) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO products (name, description, price, stock, prescription_required)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		description = excluded.description,
		price = excluded.price,
		stock = excluded.stock,
		prescription_required = excluded.prescription_required`,
		p.Name, p.Description, p.UnitPrice, p.Stock, boolInt(p.PrescriptionRequired))
	if err != nil {
		return errx.WrapStore(fmt.Errorf("upsert product: %w", err))
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
