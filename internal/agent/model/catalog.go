package model

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("insufficient stock")
	ErrInvalidPrice    = errors.New("price not available")
)

// ProductRef is a point-in-time catalog snapshot. It must not be cached beyond
// the turn that read it.
type ProductRef struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description,omitempty"`
	UnitPrice            float64 `json:"unit_price"`
	Stock                int     `json:"stock"`
	PrescriptionRequired bool    `json:"prescription_required"`
}

type OrderStatus string

const (
	OrderCreated   OrderStatus = "CREATED"
	OrderConfirmed OrderStatus = "CONFIRMED"
)

type Order struct {
	OrderID     string      `json:"order_id"`
	PatientID   string      `json:"patient_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   float64     `json:"unit_price"`
	TotalPrice  float64     `json:"total_price"`
	Status      OrderStatus `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
}

// OrderRequest is what the execution engine asks the store to commit.
// IdempotencyKey is the pending order id; replays return the original order.
type OrderRequest struct {
	IdempotencyKey string
	PatientID      string
	ProductName    string
	Quantity       int
	UnitPrice      float64
}

// OrderReceipt reports the committed order and whether it was a replay.
type OrderReceipt struct {
	Order     Order
	Duplicate bool
}

type HistoryItem struct {
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Date        time.Time `json:"date"`
}

type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogReader returns nil, nil when a product does not exist.
type CatalogReader interface {
	GetProduct(ctx context.Context, name string) (*ProductRef, error)
	ListProducts(ctx context.Context) ([]ProductRef, error)
}

// OrderStore commits orders. CreateOrder must decrement stock and persist the
// order in one transaction, returning ErrOutOfStock or ErrProductNotFound
// without side effects.
type OrderStore interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderReceipt, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) error
	ListOrders(ctx context.Context, patientID string, limit int) ([]Order, error)
}

type HistoryReader interface {
	RecentOrders(ctx context.Context, patientID string, window time.Duration) ([]HistoryItem, error)
}

type PatientReader interface {
	GetPatient(ctx context.Context, patientID string) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
}

type PrescriptionStore interface {
	HasPrescription(ctx context.Context, patientID, productName string) (bool, error)
	AddPrescription(ctx context.Context, patientID string, productNames []string) error
}

// OrderTotal rounds unit price times quantity to two decimals.
func OrderTotal(unitPrice float64, quantity int) float64 {
	return math.Round(unitPrice*float64(quantity)*100) / 100
}

// RefillDue is a medicine whose assumed supply runs out soon.
type RefillDue struct {
	PatientID   string    `json:"patient_id"`
	ProductName string    `json:"product_name"`
	LastOrdered time.Time `json:"last_ordered"`
	DaysUntil   int       `json:"days_until"`
}

// RefillReader lists refills due within the reminder window. An empty
// patientID means every patient.
type RefillReader interface {
	DueRefills(ctx context.Context, patientID string, now time.Time) ([]RefillDue, error)
}
