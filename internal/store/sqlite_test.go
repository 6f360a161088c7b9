package store

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-rx/server/internal/agent/model"
	errx "github.com/sarthi-rx/server/internal/core/error"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

func init() {
	logx.Disable()
}

func newTestStore(t *testing.T, seed bool) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Seed: seed,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()
	require.NoError(t, s.Seed(ctx, time.Now()))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(seedProducts))
	assert.Equal(t, "Paracetamol 500mg", products[0].Name)
}

func TestGetProductIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t, true)
	p, err := s.GetProduct(context.Background(), "omega-3")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Omega-3", p.Name)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 15.0, p.UnitPrice)

	missing, err := s.GetProduct(context.Background(), "Xyzmedicine123")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	rc, err := s.CreateOrder(ctx, model.OrderRequest{IdempotencyKey: "k1", PatientID: "PAT001", ProductName: "Omega-3", Quantity: 2, UnitPrice: 15})
	require.NoError(t, err)
	assert.False(t, rc.Duplicate)
	assert.Equal(t, 30.0, rc.Order.TotalPrice)
	assert.Equal(t, model.OrderCreated, rc.Order.Status)

	p, err := s.GetProduct(ctx, "Omega-3")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

func TestCreateOrderReplayIsIdempotent(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()
	req := model.OrderRequest{IdempotencyKey: "same", PatientID: "PAT001", ProductName: "Omega-3", Quantity: 2, UnitPrice: 15}

	first, err := s.CreateOrder(ctx, req)
	require.NoError(t, err)
	second, err := s.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Order.OrderID, second.Order.OrderID)

	p, _ := s.GetProduct(ctx, "Omega-3")
	assert.Equal(t, 8, p.Stock)
}

func TestCreateOrderFailures(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	_, err := s.CreateOrder(ctx, model.OrderRequest{IdempotencyKey: "a", PatientID: "PAT001", ProductName: "Omega-3", Quantity: 11, UnitPrice: 15})
	assert.ErrorIs(t, err, model.ErrOutOfStock)

	_, err = s.CreateOrder(ctx, model.OrderRequest{IdempotencyKey: "b", PatientID: "PAT001", ProductName: "Nope", Quantity: 1, UnitPrice: 15})
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	_, err = s.CreateOrder(ctx, model.OrderRequest{IdempotencyKey: "c", PatientID: "PAT001", ProductName: "Omega-3", Quantity: 1, UnitPrice: 0})
	assert.ErrorIs(t, err, model.ErrInvalidPrice)

	p, _ := s.GetProduct(ctx, "Omega-3")
	assert.Equal(t, 10, p.Stock)
	orders, err := s.ListOrders(ctx, "PAT001", 0)
	require.NoError(t, err)
	for _, o := range orders {
		assert.NotEqual(t, "Omega-3", o.ProductName)
	}
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateOrder(ctx, model.OrderRequest{
				IdempotencyKey: time.Now().String() + string(rune('a'+i)),
				PatientID:      "PAT003", ProductName: "Omega-3", Quantity: 1, UnitPrice: 15,
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	p, _ := s.GetProduct(ctx, "Omega-3")
	assert.Equal(t, 0, p.Stock)
}

func TestHistoryAndStatus(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	items, err := s.RecentOrders(ctx, "PAT002", 90*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = s.RecentOrders(ctx, "PAT002", 21*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Warfarin 5mg", items[0].ProductName)

	rc, err := s.CreateOrder(ctx, model.OrderRequest{IdempotencyKey: "st", PatientID: "PAT002", ProductName: "Vitamin C", Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	require.NoError(t, s.UpdateOrderStatus(ctx, rc.Order.OrderID, model.OrderConfirmed))
	orders, err := s.ListOrders(ctx, "PAT002", 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderConfirmed, orders[0].Status)
	assert.Error(t, s.UpdateOrderStatus(ctx, "missing", model.OrderConfirmed))
}

func TestPrescriptions(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	ok, err := s.HasPrescription(ctx, "PAT001", "Warfarin 5mg")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddPrescription(ctx, "PAT001", []string{"Warfarin 5mg", "Warfarin 5mg"}))
	ok, err = s.HasPrescription(ctx, "PAT001", "warfarin 5mg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDueRefills(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	due, err := s.DueRefills(ctx, "PAT001", time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Vitamin D", due[0].ProductName)
	assert.Equal(t, 5, due[0].DaysUntil)

	all, err := s.DueRefills(ctx, "", time.Now())
	require.NoError(t, err)
	// PAT001 Vitamin D and PAT002 Metformin; Warfarin still has ten days.
	assert.Len(t, all, 2)
}

func TestPatients(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	p, err := s.GetPatient(ctx, "PAT002")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Sunita Devi", p.Name)

	all, err := s.ListPatients(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing, err := s.GetPatient(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWriteErrorsCarryStatus(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()
	require.NoError(t, s.Close())

	_, err := s.CreateOrder(ctx, model.OrderRequest{IdempotencyKey: "k", PatientID: "PAT001", ProductName: "Omega-3", Quantity: 1, UnitPrice: 15})
	require.Error(t, err)
	var app *errx.AppError
	require.ErrorAs(t, err, &app)
	assert.Equal(t, http.StatusInternalServerError, app.Status)
	assert.Equal(t, errx.ReasonStoreFailed, app.Reason)

	err = s.AddPrescription(ctx, "PAT001", []string{"Amoxicillin 500mg"})
	assert.Equal(t, http.StatusInternalServerError, errx.StatusOf(err))

	_, err = s.HasPrescription(ctx, "PAT001", "Amoxicillin 500mg")
	assert.Equal(t, http.StatusInternalServerError, errx.StatusOf(err))
}
