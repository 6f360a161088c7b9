package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sarthi-rx/server/internal/agent/model"
)

type Config struct {
	Path string `envconfig:"DB_PATH" default:"data/sarthi.db"`
	Seed bool   `envconfig:"DB_SEED" default:"true"`
	// RefillSupplyDays is the assumed supply of one order.
	RefillSupplyDays int `envconfig:"REFILL_SUPPLY_DAYS" default:"30"`
	// RefillWindowDays is how far ahead a refill counts as due.
	RefillWindowDays int `envconfig:"REFILL_WINDOW_DAYS" default:"7"`
}

// SQLiteStore is the catalog, order, patient and prescription store.
type SQLiteStore struct {
	db *sql.DB
	// writeMu serializes write transactions so concurrent confirmations do
	// not surface SQLITE_BUSY.
	writeMu sync.Mutex

	supplyDays int
	windowDays int
}

var (
	_ model.CatalogReader     = (*SQLiteStore)(nil)
	_ model.OrderStore        = (*SQLiteStore)(nil)
	_ model.HistoryReader     = (*SQLiteStore)(nil)
	_ model.PatientReader     = (*SQLiteStore)(nil)
	_ model.PrescriptionStore = (*SQLiteStore)(nil)
	_ model.RefillReader      = (*SQLiteStore)(nil)
)

func NewSQLite(ctx context.Context, cfg Config) (*SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, supplyDays: cfg.RefillSupplyDays, windowDays: cfg.RefillWindowDays}
	if s.supplyDays <= 0 {
		s.supplyDays = 30
	}
	if s.windowDays <= 0 {
		s.windowDays = 7
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if cfg.Seed {
		if err := s.Seed(ctx, time.Now()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		prescription_required INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL DEFAULT 0,
		gender TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'en',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		idempotency_key TEXT NOT NULL UNIQUE,
		patient_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price REAL NOT NULL,
		total_price REAL NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_patient ON orders(patient_id, created_at);

	CREATE TABLE IF NOT EXISTS prescriptions (
		patient_id TEXT NOT NULL,
		product_name TEXT NOT NULL COLLATE NOCASE,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (patient_id, product_name)
	);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
